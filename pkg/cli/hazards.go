package cli

import (
	"context"

	"github.com/mchmarny/safegrade/pkg/benchmark"
	urfave "github.com/urfave/cli/v3"
)

var hazardsCmd = &urfave.Command{
	Name:   "hazards",
	Usage:  "List registered benchmarks with their hazards and reference standards",
	Action: cmdHazards,
}

type hazardItem struct {
	UID       string   `json:"uid" yaml:"uid"`
	Name      string   `json:"name" yaml:"name"`
	Reference *float64 `json:"reference,omitempty" yaml:"reference,omitempty"`
	Tests     []string `json:"tests" yaml:"tests"`
}

type benchmarkItem struct {
	UID     string        `json:"uid" yaml:"uid"`
	Key     string        `json:"key" yaml:"key"`
	Hazards []*hazardItem `json:"hazards" yaml:"hazards"`
}

func cmdHazards(_ context.Context, cmd *urfave.Command) error {
	return encode(cmd, listBenchmarks(getConfig(cmd).Registry))
}

func listBenchmarks(reg *benchmark.Registry) []*benchmarkItem {
	list := make([]*benchmarkItem, 0)
	for _, b := range reg.Benchmarks() {
		item := &benchmarkItem{
			UID:     b.UID(),
			Key:     b.Key(),
			Hazards: make([]*hazardItem, 0, len(b.Hazards())),
		}
		for _, h := range b.Hazards() {
			hi := &hazardItem{
				UID:   h.UID(),
				Name:  h.Name(),
				Tests: h.Tests(),
			}
			if h.HasReference() {
				ref := h.ReferenceStandard()
				hi.Reference = &ref
			}
			item.Hazards = append(item.Hazards, hi)
		}
		list = append(list, item)
	}
	return list
}
