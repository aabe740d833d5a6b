package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/kyc-extractor/constants"
	"github.com/joseph-ayodele/kyc-extractor/internal/common"
	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/export"
	"github.com/joseph-ayodele/kyc-extractor/internal/pipeline"
	"github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

type fakePipeline struct {
	res      pipeline.ExtractionResult
	err      error
	filename string
	data     []byte
	rid      string
}

func (f *fakePipeline) ProcessUpload(ctx context.Context, filename string, data []byte) (pipeline.ExtractionResult, error) {
	f.filename, f.data = filename, data
	f.rid = common.RequestIDFromContext(ctx)
	return f.res, f.err
}

type fakeCards struct {
	aadhaar     *entity.AadhaarDetails
	pan         *entity.PanDetails
	err         error
	front, back []byte
}

func (f *fakeCards) ExtractAadhaar(_ context.Context, front, back []byte) (*entity.AadhaarDetails, error) {
	f.front, f.back = front, back
	return f.aadhaar, f.err
}

func (f *fakeCards) ExtractPan(_ context.Context, image []byte) (*entity.PanDetails, error) {
	f.front = image
	return f.pan, f.err
}

type fakeDB struct{ err error }

func (f fakeDB) HealthCheck(context.Context, time.Duration) error { return f.err }

func multipartRequest(t *testing.T, path string, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for field, content := range files {
		fw, err := w.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, path string, v any) *http.Request {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestOCR(t *testing.T) {
	tests := []struct {
		name       string
		res        pipeline.ExtractionResult
		err        error
		wantStatus int
		check      func(t *testing.T, body map[string]any)
	}{
		{
			name: "card is a flat field map",
			res: &pipeline.CardResult{Type: constants.PanCard, Fields: map[string]string{
				constants.FieldDocumentNumber: "ABCDE1234F",
				constants.FieldGender:         "NA",
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body[constants.FieldDocumentNumber] != "ABCDE1234F" || body[constants.FieldGender] != "NA" {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name: "paged result",
			res: &pipeline.PagedResult{Type: constants.PaySlip, Pages: []pipeline.PageResult{
				{Page: 1, Data: "{}"}, {Page: 2, Data: "x"}, {Page: 3, Data: ""},
			}},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["status"] != "success" || body["message"] != "OCR Extraction Completed" || body["documentType"] != "Pay Slip" {
					t.Errorf("body = %v", body)
				}
				pages := body["extractedData"].([]any)
				if len(pages) != 3 {
					t.Fatalf("pages = %v", pages)
				}
				for i, p := range pages {
					if p.(map[string]any)["page"] != float64(i+1) {
						t.Errorf("page %d = %v", i, p)
					}
				}
			},
		},
		{
			name: "credence",
			res: &pipeline.CredenceResult{
				Pages: []pipeline.PageResult{{Page: 1, Data: "**Name:** A", Fields: map[string]string{"Name": "A"}}},
				Photo: &pipeline.Photo{PNG: []byte{1, 2}, Path: "photos/p.png"},
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				if body["documentType"] != "Credence Document" || body["candidatePhotoPath"] != "photos/p.png" {
					t.Errorf("body = %v", body)
				}
				page := body["extractedData"].([]any)[0].(map[string]any)
				if page["fields"].(map[string]any)["Name"] != "A" {
					t.Errorf("page = %v", page)
				}
			},
		},
		{
			name:       "unknown document",
			res:        &pipeline.UnknownResult{Message: "Invalid document type"},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				if body["status"] != "error" || body["message"] != "Invalid document type" {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "gateway error",
			err:        &common.GatewayError{Status: 502, Body: "bad upstream"},
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["error"] != "API request failed with status code 502" || body["message"] != "bad upstream" {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "parse error",
			err:        common.NewParseError("Error parsing JSON response", errors.New("eof")),
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				if body["error"] != "Error parsing JSON response" {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "input error",
			err:        common.NewInputError(`unsupported file type "txt"`),
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				if body["error"] != `unsupported file type "txt"` {
					t.Errorf("body = %v", body)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{res: tt.res, err: tt.err}
			app := New(Config{}, Deps{Pipeline: p})

			resp, err := app.Test(multipartRequest(t, "/api/v1/ocr", map[string]string{"file": "PNGDATA"}), -1)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			tt.check(t, decode(t, resp))
			if string(p.data) != "PNGDATA" || p.filename != "file.png" {
				t.Errorf("pipeline got %q %q", p.filename, p.data)
			}
			if p.rid == "" || resp.Header.Get(fiber.HeaderXRequestID) != p.rid {
				t.Errorf("request id %q not propagated (header %q)", p.rid, resp.Header.Get(fiber.HeaderXRequestID))
			}
		})
	}
}

func TestOCR_NoFile(t *testing.T) {
	p := &fakePipeline{}
	app := New(Config{}, Deps{Pipeline: p})

	resp, err := app.Test(multipartRequest(t, "/api/v1/ocr", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decode(t, resp); body["error"] != "No file provided" {
		t.Errorf("body = %v", body)
	}
	if p.data != nil {
		t.Error("pipeline should not run")
	}
}

func TestUploadAadhaar(t *testing.T) {
	dob := "1990-03-25"
	t.Run("front and back", func(t *testing.T) {
		cards := &fakeCards{aadhaar: &entity.AadhaarDetails{Name: "Ravi", AadharNo: "1234", DateOfBirth: &dob}}
		app := New(Config{}, Deps{Cards: cards})
		resp, err := app.Test(multipartRequest(t, "/api/v1/upload_aadhaar", map[string]string{
			"file_front": "FRONT",
			"file_back":  "BACK",
		}), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		body := decode(t, resp)
		data := body["data"].(map[string]any)
		if body["message"] != "Success" || data["name"] != "Ravi" || data["date_of_birth"] != dob {
			t.Errorf("body = %v", body)
		}
		if string(cards.front) != "FRONT" || string(cards.back) != "BACK" {
			t.Errorf("cards got %q / %q", cards.front, cards.back)
		}
	})

	t.Run("front missing", func(t *testing.T) {
		app := New(Config{}, Deps{Cards: &fakeCards{}})
		resp, err := app.Test(multipartRequest(t, "/api/v1/upload_aadhaar", map[string]string{"file_back": "BACK"}), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if body := decode(t, resp); body["error"] != "Front side of Aadhaar is required" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("quality failure", func(t *testing.T) {
		msg := "Failed to extract Aadhaar details. Please check the image quality."
		app := New(Config{}, Deps{Cards: &fakeCards{err: common.NewQualityError(msg)}})
		resp, err := app.Test(multipartRequest(t, "/api/v1/upload_aadhaar", map[string]string{"file_front": "F"}), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if body := decode(t, resp); body["error"] != msg {
			t.Errorf("body = %v", body)
		}
	})
}

func TestUploadPan_Missing(t *testing.T) {
	app := New(Config{}, Deps{Cards: &fakeCards{}})
	resp, err := app.Test(multipartRequest(t, "/api/v1/upload_pan", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if body := decode(t, resp); body["error"] != "PAN card image is required" {
		t.Errorf("body = %v", body)
	}
}

func newStore(t *testing.T) (*repository.DB, repository.CandidateRepository) {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(db.Close)
	if err := repository.Migrate(context.Background(), db); err != nil {
		t.Fatal(err)
	}
	return db, repository.NewCandidateRepository(db, nil)
}

func TestSaveAndExport(t *testing.T) {
	db, repo := newStore(t)
	app := New(Config{}, Deps{
		Candidates: repo,
		Exporter:   export.NewService(repo, nil),
		DB:         db,
	})

	aadhaar := map[string]any{
		"name": "Ravi", "gender": "Male", "date_of_birth": "1990-03-25",
		"fathers_name": "Suresh", "aadhar_no": "1234 5678 9012", "street_address": "12 Main Rd",
	}
	pan := map[string]any{"name": "Ravi", "fathers_name": "Suresh", "date_of_birth": "1990-03-25", "pan_no": "ABCDE1234F"}

	steps := []struct {
		path string
		body map[string]any
		want string
	}{
		{"/api/v1/save_aadhaar", aadhaar, "Data saved successfully!"},
		{"/api/v1/save_aadhaar", aadhaar, "Data updated successfully!"},
		{"/api/v1/save_pan", pan, "PAN data saved successfully!"},
		{"/api/v1/save_pan", pan, "PAN data updated successfully!"},
	}
	for _, st := range steps {
		resp, err := app.Test(jsonRequest(t, st.path, st.body), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d", st.path, resp.StatusCode)
		}
		if body := decode(t, resp); body["message"] != st.want {
			t.Errorf("%s: message = %v, want %q", st.path, body["message"], st.want)
		}
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	list := decode(t, resp)["candidates"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 candidates (one per key), got %d", len(list))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates/export", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "candidates.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	rows, _ := f.GetRows(export.SheetName)
	if len(rows) != 3 {
		t.Errorf("expected header + 2 rows, got %d", len(rows))
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates/export?from=2024-13-01", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad date status = %d", resp.StatusCode)
	}
}

func TestSave_InvalidBody(t *testing.T) {
	_, repo := newStore(t)
	app := New(Config{}, Deps{Candidates: repo})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/save_pan", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestSave_PersistenceError(t *testing.T) {
	// no migration: the table does not exist
	db, err := repository.OpenSQLite(context.Background(), "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	app := New(Config{}, Deps{Candidates: repository.NewCandidateRepository(db, nil)})

	resp, err := app.Test(jsonRequest(t, "/api/v1/save_pan", map[string]any{"pan_no": "ABCDE1234F"}), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body := decode(t, resp); !strings.Contains(body["error"].(string), "candidates") {
		t.Errorf("expected the driver message, got %v", body)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := New(Config{}, Deps{DB: fakeDB{err: errors.New("connection refused")}})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if body := decode(t, resp); body["status"] != "healthy" {
		t.Errorf("health = %v", body)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestUnconfiguredRoutes(t *testing.T) {
	app := New(Config{}, Deps{})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/candidates", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
