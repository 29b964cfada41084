package pageindex

import (
	"bytes"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// hasImageStreams reports whether the PDF carries image XObjects. It is only
// consulted after text extraction came back empty, to tell scanned documents
// apart from otherwise blank ones.
func hasImageStreams(data []byte) (found bool) {
	defer func() {
		if recover() != nil {
			found = false
		}
	}()

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return false
	}
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, ok := sd.Find("Subtype"); ok {
			if name, ok := subtype.(types.Name); ok && name == "Image" {
				return true
			}
		}
	}
	return false
}
