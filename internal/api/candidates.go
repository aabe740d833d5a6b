package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/kyc-extractor/internal/entity"
	"github.com/joseph-ayodele/kyc-extractor/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var saveMessages = map[string]map[repository.Outcome]string{
	"aadhaar": {
		repository.Inserted: "Data saved successfully!",
		repository.Updated:  "Data updated successfully!",
	},
	"pan": {
		repository.Inserted: "PAN data saved successfully!",
		repository.Updated:  "PAN data updated successfully!",
	},
}

func (s *Server) handleSaveAadhaar(c *fiber.Ctx) error {
	if s.deps.Candidates == nil {
		return unavailable(c, "candidate store")
	}
	var d entity.AadhaarDetails
	if err := c.BodyParser(&d); err != nil {
		return badRequest(c, "Invalid request body")
	}
	outcome, err := s.deps.Candidates.UpsertAadhaar(c.UserContext(), d)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": saveMessages["aadhaar"][outcome]})
}

func (s *Server) handleSavePan(c *fiber.Ctx) error {
	if s.deps.Candidates == nil {
		return unavailable(c, "candidate store")
	}
	var d entity.PanDetails
	if err := c.BodyParser(&d); err != nil {
		return badRequest(c, "Invalid request body")
	}
	outcome, err := s.deps.Candidates.UpsertPan(c.UserContext(), d)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": saveMessages["pan"][outcome]})
}

func (s *Server) handleListCandidates(c *fiber.Ctx) error {
	if s.deps.Candidates == nil {
		return unavailable(c, "candidate store")
	}
	list, err := s.deps.Candidates.List(c.UserContext())
	if err != nil {
		return s.writeError(c, err)
	}
	if list == nil {
		list = []*entity.Candidate{}
	}
	return c.JSON(fiber.Map{"candidates": list})
}

// handleExportCandidates serves the XLSX export. from/to are optional YYYY-MM-DD bounds.
func (s *Server) handleExportCandidates(c *fiber.Ctx) error {
	if s.deps.Exporter == nil {
		return unavailable(c, "exporter")
	}
	from, err := parseDate(c.Query("from"))
	if err != nil {
		return badRequest(c, "from must be YYYY-MM-DD")
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return badRequest(c, "to must be YYYY-MM-DD")
	}

	xlsx, err := s.deps.Exporter.ExportCandidatesXLSX(c.UserContext(), from, to)
	if err != nil {
		return s.writeError(c, err)
	}
	c.Attachment("candidates.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(xlsx)
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
