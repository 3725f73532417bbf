package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chynybekuuludastan/sitecloner/internal/models"
)

// RenderModule renders validated content as an importable ES module. Key order of the
// content is preserved.
func RenderModule(templateID string, req models.GenerationRequest, content json.RawMessage) (string, error) {
	var indented bytes.Buffer
	if err := json.Indent(&indented, bytes.TrimSpace(content), "", "  "); err != nil {
		return "", fmt.Errorf("indent site content: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("// Generated via " + templateID)
	switch {
	case req.URL != "":
		sb.WriteString(" from: " + req.URL)
	case req.CompanyName != "":
		sb.WriteString(" for: " + req.CompanyName)
	}
	sb.WriteString(fmt.Sprintf(" (industry: %s)\n", req.Industry))
	sb.WriteString("export const siteContent = ")
	sb.Write(indented.Bytes())
	sb.WriteString(";\n")
	sb.WriteString("export default siteContent;")
	return sb.String(), nil
}
