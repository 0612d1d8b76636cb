package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/classmod/pkg/classes"
	"github.com/gnana997/classmod/pkg/parser"
	"github.com/gnana997/classmod/pkg/selector"
	"github.com/gnana997/classmod/pkg/stylesheet"
)

const (
	defaultTag     = "div"
	defaultFeature = "feature"
	defaultFile    = "Component.tsx"
)

// HandleToolCall dispatches a tool call to the appropriate handler.
func (s *Server) HandleToolCall(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: toolName, Arguments: args},
	}

	switch toolName {
	case toolConvertClasses:
		return s.handleConvertClasses(ctx, req)
	case toolConvertSource:
		return s.handleConvertSource(ctx, req)
	case toolLookupUtility:
		return s.handleLookupUtility(ctx, req)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolName)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

type convertClassesResult struct {
	Selector string   `json:"selector"`
	Rule     string   `json:"rule"`
	Known    []string `json:"known"`
	Unknown  []string `json:"unknown"`
	Global   string   `json:"global,omitempty"`
}

func (s *Server) handleConvertClasses(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := req.RequireString("classes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.conv.Options()
	target := req.GetString("selector", defaultTag)
	var sel selector.ElementSelector
	if strings.HasPrefix(target, ".") {
		sel = selector.ElementSelector{Tag: strings.TrimPrefix(target, "."), Ordinal: 1, Selector: target}
	} else {
		tag := selector.ResolveTag(target, selector.ClassifyTag(target))
		sel = selector.NewAssigner(opts.SemanticElements, opts.CommonElements).Assign(tag)
	}

	el, globals := s.conv.ConvertClasses(value, sel)

	res := convertClassesResult{
		Selector: sel.Selector,
		Rule:     el.Rule,
		Known:    nonNil(el.Known),
		Unknown:  nonNil(el.Unknown),
	}
	if len(globals) > 0 {
		res.Global = s.conv.Builder().RenderGlobals(globals)
	}
	return jsonResult(res)
}

type elementResult struct {
	Selector string   `json:"selector"`
	Key      string   `json:"key"`
	Line     int      `json:"line"`
	Known    []string `json:"known"`
	Unknown  []string `json:"unknown"`
}

type unknownClass struct {
	Line    int    `json:"line"`
	Element string `json:"element"`
	Class   string `json:"class"`
}

type convertSourceResult struct {
	Stylesheet string          `json:"stylesheet"`
	Global     string          `json:"global,omitempty"`
	Source     string          `json:"source"`
	Changed    bool            `json:"changed"`
	Elements   []elementResult `json:"elements"`
	Unknown    []unknownClass  `json:"unknown"`
	Dynamic    int             `json:"dynamic_attributes"`
}

func (s *Server) handleConvertSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := req.RequireString("code")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	feature := req.GetString("feature", defaultFeature)
	file := req.GetString("file", defaultFile)
	if parser.DetectDialect(file) == parser.DialectUnknown {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported file extension: %s", file)), nil
	}

	fr, err := s.conv.ConvertSource(ctx, feature, file, []byte(code))
	if err != nil {
		if errors.Is(err, parser.ErrSyntax) {
			return mcp.NewToolResultError("code contains syntax errors; fix them before converting"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.conv.Options()
	section := stylesheet.Section{
		File:  strings.TrimSuffix(fr.Name, filepath.Ext(fr.Name)),
		Rules: fr.Rules(),
	}
	res := convertSourceResult{
		Stylesheet: stylesheet.RenderFeature(opts.Framework.MixinsFile(), []stylesheet.Section{section}, false),
		Source:     code,
		Changed:    fr.Source != nil,
		Elements:   make([]elementResult, 0, len(fr.Elements)),
		Unknown:    make([]unknownClass, 0, len(fr.Unknown)),
		Dynamic:    fr.Dynamic,
	}
	if fr.Source != nil {
		res.Source = string(fr.Source)
	}
	if len(fr.Globals) > 0 {
		res.Global = s.conv.Builder().RenderGlobals(fr.Globals)
	}
	for _, el := range fr.Elements {
		res.Elements = append(res.Elements, elementResult{
			Selector: el.Selector.Selector,
			Key:      el.Selector.Key(),
			Line:     el.Line,
			Known:    nonNil(el.Known),
			Unknown:  nonNil(el.Unknown),
		})
	}
	for _, e := range fr.Unknown {
		res.Unknown = append(res.Unknown, unknownClass{Line: e.Line, Element: e.Element, Class: e.Class})
	}
	return jsonResult(res)
}

type lookupResult struct {
	Class       string   `json:"class"`
	Base        string   `json:"base"`
	Responsive  string   `json:"responsive,omitempty"`
	Pseudo      string   `json:"pseudo,omitempty"`
	Declaration string   `json:"declaration"`
	Lines       []string `json:"lines"`
	Framework   string   `json:"framework"`
}

func (s *Server) handleLookupUtility(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := req.RequireString("class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := s.conv.Options()
	tok := classes.Parse(strings.TrimSpace(class), opts.Modifiers, opts.Policy)
	decl, ok := s.conv.Table().Resolve(tok.Base)
	if tok.Malformed || !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown %s utility: %s", opts.Framework, class)), nil
	}

	return jsonResult(lookupResult{
		Class:       tok.Original,
		Base:        tok.Base,
		Responsive:  tok.Responsive,
		Pseudo:      tok.Pseudo,
		Declaration: decl,
		Lines:       nonNil(s.conv.Mapper().Map(tok.Base, decl)),
		Framework:   string(opts.Framework),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
