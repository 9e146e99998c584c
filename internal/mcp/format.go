package mcp

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-model/internal/descriptions"
	"github.com/a3tai/mcp-pdf-model/internal/pdf"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-model/internal/pdf/model"
)

func formatDocument(path string, doc *model.Document) string {
	text := fmt.Sprintf("Converted %s: %d page(s)\n", path, doc.PageCount())
	for _, page := range doc.Pages() {
		text += fmt.Sprintf("Page %d: bbox %s, rotate %d, %d text box(es), %d figure(s)\n",
			page.ID(), model.BBoxString(page.BBox()), page.Rotate(),
			len(page.TextBoxes()), len(page.Figures()))
	}
	return text
}

func formatPage(page *model.Page) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Page %d (bbox %s, rotate %d): %d item(s)\n",
		page.ID(), model.BBoxString(page.BBox()), page.Rotate(), page.Len())

	for _, e := range page.Entries() {
		switch item := e.Item.(type) {
		case *model.TextBox:
			fmt.Fprintf(&sb, "\n[%d] text box %d, bbox %v", e.ID, item.BoxID(), item.BBox())
			if item.WritingMode() != "" {
				fmt.Fprintf(&sb, ", %s", item.WritingMode())
			}
			fmt.Fprintf(&sb, "\n%s\n", strings.TrimRight(item.Text(), "\n"))
		case *model.Figure:
			fmt.Fprintf(&sb, "\n[%d] figure %s, bbox %v", e.ID, item.Name(), item.BBox())
			if img, ok := item.Image(); ok {
				fmt.Fprintf(&sb, ", image %dx%d", img.Width, img.Height)
				if img.Src != "" {
					fmt.Fprintf(&sb, ", exported as %s", img.Src)
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func formatWriteResult(target string, result *extraction.WriteResult) string {
	text := fmt.Sprintf("Wrote %d field value(s) to %s\n", result.Updated, target)
	for _, page := range result.Pages {
		if len(page.Updated) > 0 {
			text += fmt.Sprintf("Page %d: %s\n", page.Page, strings.Join(page.Updated, ", "))
		}
	}
	if failed := result.Failed(); len(failed) > 0 {
		text += fmt.Sprintf("\n⚠️  %d page(s) could not be updated:\n", len(failed))
		for _, page := range failed {
			text += fmt.Sprintf("Page %d: %v\n", page.Page, page.Err)
		}
	}
	return text
}

func formatFileList(directory, query string, files []pdf.FileInfo) string {
	text := fmt.Sprintf("Found %d PDF file(s) in directory: %s\n", len(files), directory)
	if query != "" {
		text += fmt.Sprintf("Search query: %s\n", query)
	}
	text += "\nFiles:\n"

	for i, file := range files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %d bytes\n", file.Size)
		text += fmt.Sprintf("   Modified: %s\n", file.ModifiedTime)
		if i < len(files)-1 {
			text += "\n"
		}
	}
	return text
}

func formatDocumentInfo(info *pdf.DocumentInfo) string {
	text := "PDF File Information\n"
	text += fmt.Sprintf("File: %s\n", info.Path)
	text += fmt.Sprintf("Size: %d bytes\n", info.Size)
	text += fmt.Sprintf("Pages: %d\n", info.Pages)
	text += fmt.Sprintf("Modified: %s\n", info.ModifiedTime)
	text += fmt.Sprintf("Encrypted: %t\n", info.Encrypted)
	text += fmt.Sprintf("Input fields: %t\n", info.HasFields)
	if len(info.Denied) > 0 {
		text += fmt.Sprintf("Denied operations: %s\n", strings.Join(info.Denied, ", "))
	}
	if !info.FillForms {
		text += "⚠️  Form filling is not permitted by the document\n"
	}

	for _, kv := range [][2]string{
		{"Title", info.Title},
		{"Author", info.Author},
		{"Subject", info.Subject},
		{"Keywords", info.Keywords},
		{"Creator", info.Creator},
		{"Producer", info.Producer},
		{"Created", info.CreatedDate},
	} {
		if kv[1] != "" {
			text += fmt.Sprintf("%s: %s\n", kv[0], kv[1])
		}
	}
	return text
}

func (s *Server) formatServerInfo(files []pdf.FileInfo) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Default Directory: %s\n", s.session.Directory())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	codec := s.config.Codec
	if codec == "" {
		codec = model.DefaultCodec
	}
	text += fmt.Sprintf("🔤 XML Codec: %s\n", codec)
	if s.config.ImageDirectory != "" {
		text += fmt.Sprintf("🖼️  Image Export Directory: %s\n", s.config.ImageDirectory)
	}
	if active := s.session.ActivePath(); active != "" {
		text += fmt.Sprintf("📄 Active Document: %s\n", active)
	}
	text += "\n"

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in default directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range descriptions.Tools() {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + s.usageGuidance()
	return text
}

func (s *Server) usageGuidance() string {
	return fmt.Sprintf(`PDF Model Server Usage Guide:

1. FIND DOCUMENTS:
   - Use 'pdf_list_documents' to find PDF files in %s
   - Use 'pdf_get_info' for page count and metadata

2. SELECT A DOCUMENT:
   - Use 'pdf_open_document' to make a document active
   - Tools without a path work on the active document

3. READ CONTENT:
   - Use 'pdf_convert' for an overview of every page
   - Use 'pdf_get_page' for the text boxes and figures of one page
   - Use 'pdf_dump_xml' for the complete layout tree

4. FILL FORMS:
   - Use 'pdf_get_input_fields' to read field names, labels and values
   - Use 'pdf_set_field_value' per field, addressing fields by name or label
   - Use 'pdf_update_field_values' to save, in place or to a new file

5. CLEAN UP:
   - Use 'pdf_close_all' to release every open document

Files larger than %d MB are rejected. Paths outside the configured directory are refused.`,
		s.session.Directory(), s.config.MaxFileSize/(1024*1024))
}
