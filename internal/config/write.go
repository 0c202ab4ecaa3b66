package config

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// HCL renders c as a kamfmt.hcl document.
func (c *Config) HCL() []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	files := root.AppendNewBlock("files", nil).Body()
	files.SetAttributeValue("include", stringList(c.Files.Include))
	files.SetAttributeValue("exclude", stringList(c.Files.Exclude))
	root.AppendNewline()

	fmtBlock := root.AppendNewBlock("format", nil).Body()
	fmtBlock.SetAttributeValue("strategy", cty.StringVal(c.Format.Strategy))
	fmtBlock.SetAttributeValue("validate", cty.BoolVal(c.Format.Validate))
	root.AppendNewline()

	lsp := root.AppendNewBlock("lsp", nil).Body()
	lsp.SetAttributeValue("diagnostics", cty.BoolVal(c.LSP.Diagnostics))

	return hclwrite.Format(f.Bytes())
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, 0, len(items))
	for _, item := range items {
		vals = append(vals, cty.StringVal(item))
	}
	return cty.ListVal(vals)
}
