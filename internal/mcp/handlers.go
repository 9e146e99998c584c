package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

// serverInfoFileLimit bounds the directory listing of pdf_server_info
const serverInfoFileLimit = 100

func (s *Server) handleOpenDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.session.SwitchTo(path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pages, err := s.session.PageCount("")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Active document: %s\nPages: %d\n", s.session.ActivePath(), pages)), nil
}

func (s *Server) handleConvert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := s.session.Convert(request.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDocument(s.session.ActivePath(), doc)), nil
}

func (s *Server) handleDumpXML(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	xml, err := s.session.DumpXML(request.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(xml), nil
}

func (s *Server) handleGetPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.session.Page(request.GetString("path", ""), id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatPage(page)), nil
}

func (s *Server) handleGetInputFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields, err := s.session.GetFields(request.GetString("path", ""), request.GetBool("replace_none_value", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Document %s does not have any input fields", s.session.ActivePath())), nil
	}

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode fields: %v", err)), nil
	}
	text := fmt.Sprintf("Found %d input field(s) in %s:\n%s\n", len(fields), s.session.ActivePath(), data)
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleSetFieldValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("field_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	save := request.GetBool("save", false)

	if err := s.session.SetFieldValue(name, value, save); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("Set %s to %q", name, value)
	if save {
		text += fmt.Sprintf(" and saved %s", s.session.ActivePath())
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleUpdateFieldValues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	values, err := valuesArgument(request.GetArguments()["values"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	target := request.GetString("target", "")

	result, err := s.session.UpdateFieldValues(request.GetString("source", ""), target, values)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if target == "" {
		target = s.session.ActivePath()
	}
	return mcp.NewToolResultText(formatWriteResult(target, result)), nil
}

// valuesArgument converts the values object of a tool call. Scalars are
// rendered as text; nested objects and arrays are rejected.
func valuesArgument(raw any) (map[string]string, error) {
	if raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object", "values")
	}

	values := make(map[string]string, len(obj))
	for name, v := range obj {
		switch v := v.(type) {
		case string:
			values[name] = v
		case nil:
			values[name] = ""
		case bool, float64, int:
			values[name] = fmt.Sprint(v)
		default:
			return nil, fmt.Errorf("value of field %q must be a string", name)
		}
	}
	return values, nil
}

func (s *Server) handleCloseAll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.session.CloseAll(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Closed all documents"), nil
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	files, err := s.session.ListDocuments(query, request.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	if len(files) == 0 {
		text := fmt.Sprintf("No PDF files found in directory: %s", s.session.Directory())
		if query != "" {
			text += fmt.Sprintf(" (searched for: %s)", query)
		}
		return mcp.NewToolResultText(text), nil
	}
	return mcp.NewToolResultText(formatFileList(s.session.Directory(), query, files)), nil
}

func (s *Server) handleGetInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.session.Info(request.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatDocumentInfo(info)), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.session.ListDocuments("", serverInfoFileLimit)
	if err != nil {
		s.logger.Warnf("failed to list %s: %v", s.session.Directory(), err)
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}
