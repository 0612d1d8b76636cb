package mcp

import "github.com/mark3labs/mcp-go/mcp"

const (
	toolConvertClasses = "convert_classes"
	toolConvertSource  = "convert_source"
	toolLookupUtility  = "lookup_utility"
)

func convertClassesTool() mcp.Tool {
	return mcp.NewTool(toolConvertClasses,
		mcp.WithDescription("Convert a className value into an SCSS rule. Returns the rule, the converted and unknown classes, and the global rules for global: classes."),
		mcp.WithString("classes",
			mcp.Required(),
			mcp.Description(`Utility classes as written in className, e.g. "flex p-4 md:hover:bg-blue-500"`),
		),
		mcp.WithString("selector",
			mcp.Description(`Element tag ("button") or a full selector (".card"). Defaults to "div".`),
		),
	)
}

func convertSourceTool() mcp.Tool {
	return mcp.NewTool(toolConvertSource,
		mcp.WithDescription("Convert every static className in a TSX/JSX component. Returns the module stylesheet, the rewritten source and the unknown classes. Nothing is written to disk."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Component source code"),
		),
		mcp.WithString("feature",
			mcp.Description(`Feature name used for the module import path. Defaults to "feature".`),
		),
		mcp.WithString("file",
			mcp.Description(`File name; its extension selects TSX or JSX parsing. Defaults to "Component.tsx".`),
		),
	)
}

func lookupUtilityTool() mcp.Tool {
	return mcp.NewTool(toolLookupUtility,
		mcp.WithDescription("Look up a utility class in the active framework table. Returns its declaration and the SCSS lines it maps to."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description(`Utility class, optionally with modifiers, e.g. "hover:bg-white"`),
		),
	)
}
