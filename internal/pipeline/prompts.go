package pipeline

const cardPrompt = `Act as an OCR assistant. Analyze the provided image(s) and extract only these fields, one per line, exactly in this form:
**Document Type:** Aadhaar card or PAN card
**Document Number:** the Aadhaar or PAN number
**Date of Birth/Issue:** the date as printed (it may be a DOB)
**Name as on Document:** the first name line
**Father's/Guardian's Name:** the line directly below the name
**Gender:** as printed
**Address:** the address only, no sentences; N/A if there is none
If any field is missing, write NA for that field. Do not add anything else.`

const credencePrompt = `Extract all the details from the image without describing the image.
Ensure the extracted data is structured, including all fields without missing any information.
Do not include descriptions of sections, images, colors, or text formatting.
Do not include phrases like "Here is the extracted data in structured JSON format:" in the response.
Do not add notes, assumptions, or statements such as "from this image I got this information."
Do not assume it is an Aadhaar or PAN card; extract the details exactly as they appear.
Use a bold heading for each section and "**Label:** value" lines for fields, without mentioning page numbers.
Do not repeat the same information across sections. Do not include headers or footers.
Extract every section of the code of conduct as it appears, and show the "Certification" text at the end.
Never start a section with "The image displays", "The image provides", "The image presents",
"In summary, the image displays", "The image shows a resume" or "No information is available in the image".`

const paySlipPrompt = `Extract structured data from the provided payslip as a JSON object.
Keep a separate object for each month shown. Extract:
Employee Name, Employee Code, Designation, PAN No., Department, City/Facility, Date of Joining (DOJ),
Total Days, Payable Days, Loss of Pay (LOP) Days,
salary components (BASIC, HRA, Other Allowances, Conveyance Allowance, Medical Allowance),
Gross Earnings, Total Deductions, Net Pay Amount (both the numeric value and the words).
Do not add assumptions or descriptions. Avoid headers, footers and repeated details.`

const resultPrompt = `Extract all available details from the result as a JSON object with clear key-value pairs:
student name, roll number, hall ticket number, year of admission, college name, final exam month and year,
class awarded, every semester with all subjects and the marks obtained exactly as shown,
maximum marks, grades, result status (Pass/Fail) and the aggregate marks.
Keep every mark exactly as printed. Do not add assumptions or descriptions.`
