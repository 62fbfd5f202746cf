package registry

import (
	"github.com/dukex/nodeflow/pkg/nodes/add"
	"github.com/dukex/nodeflow/pkg/nodes/condition"
	"github.com/dukex/nodeflow/pkg/nodes/httprequest"
	"github.com/dukex/nodeflow/pkg/nodes/log"
	"github.com/dukex/nodeflow/pkg/nodes/merge"
	printnode "github.com/dukex/nodeflow/pkg/nodes/print"
	"github.com/dukex/nodeflow/pkg/nodes/readimage"
	"github.com/dukex/nodeflow/pkg/nodes/start"
	switchnode "github.com/dukex/nodeflow/pkg/nodes/switch"
	"github.com/dukex/nodeflow/pkg/nodes/template"
	"github.com/dukex/nodeflow/pkg/nodes/typechange"
)

// RegisterDefaultNodes registers all built-in node types with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.Register(start.NewStartNodeType())
	r.Register(add.NewAddNodeType())
	r.Register(printnode.NewPrintNodeType())
	r.Register(typechange.NewTypeChangeNodeType())
	r.Register(condition.NewIfNodeType())
	r.Register(switchnode.NewSwitchNodeType())
	r.Register(merge.NewMergeNodeType())
	r.Register(log.NewLogNodeType())
	r.Register(template.NewTemplateNodeType())
	r.Register(httprequest.NewHTTPRequestNodeType())
	r.Register(readimage.NewReadImageNodeType())
}
