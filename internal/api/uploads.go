package api

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
)

type pageJSON struct {
	Page   int               `json:"page"`
	Data   string            `json:"data"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) handleOCR(c *fiber.Ctx) error {
	if s.deps.Pipeline == nil {
		return unavailable(c, "extraction pipeline")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file provided")
	}
	data, err := readFormFile(fh)
	if err != nil {
		return s.writeError(c, err)
	}

	res, err := s.deps.Pipeline.ProcessUpload(c.UserContext(), fh.Filename, data)
	if err != nil {
		return s.writeError(c, err)
	}

	switch r := res.(type) {
	case *pipeline.CardResult:
		return c.JSON(r.Fields)
	case *pipeline.CredenceResult:
		body := fiber.Map{
			"documentType":       string(r.DocumentType()),
			"extractedData":      pagesJSON(r.Pages, true),
			"candidatePhotoPath": nil,
		}
		if r.Photo != nil {
			if r.Photo.Path != "" {
				body["candidatePhotoPath"] = r.Photo.Path
			}
			body["candidatePhoto"] = r.Photo.PNG
		}
		return c.JSON(body)
	case *pipeline.PagedResult:
		return c.JSON(fiber.Map{
			"status":        "success",
			"message":       "OCR Extraction Completed",
			"documentType":  string(r.Type),
			"extractedData": pagesJSON(r.Pages, false),
		})
	case *pipeline.UnknownResult:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": r.Message,
		})
	default:
		return s.writeError(c, fmt.Errorf("unexpected result %T", res))
	}
}

func (s *Server) handleUploadAadhaar(c *fiber.Ctx) error {
	if s.deps.Cards == nil {
		return unavailable(c, "card reader")
	}
	front, err := c.FormFile("file_front")
	if err != nil {
		return badRequest(c, "Front side of Aadhaar is required")
	}
	frontData, err := readFormFile(front)
	if err != nil {
		return s.writeError(c, err)
	}
	var backData []byte
	if back, err := c.FormFile("file_back"); err == nil {
		if backData, err = readFormFile(back); err != nil {
			return s.writeError(c, err)
		}
	}

	details, err := s.deps.Cards.ExtractAadhaar(c.UserContext(), frontData, backData)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": details})
}

func (s *Server) handleUploadPan(c *fiber.Ctx) error {
	if s.deps.Cards == nil {
		return unavailable(c, "card reader")
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "PAN card image is required")
	}
	data, err := readFormFile(fh)
	if err != nil {
		return s.writeError(c, err)
	}
	details, err := s.deps.Cards.ExtractPan(c.UserContext(), data)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Success", "data": details})
}

func pagesJSON(pages []pipeline.PageResult, withFields bool) []pageJSON {
	out := make([]pageJSON, len(pages))
	for i, p := range pages {
		out[i] = pageJSON{Page: p.Page, Data: p.Data}
		if withFields {
			out[i].Fields = p.Fields
		}
	}
	return out
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return data, nil
}
