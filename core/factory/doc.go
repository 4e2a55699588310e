// Package factory instantiates pluggable modules, such as metrics sinks, from
// configuration. A module is described by a type name and a map of raw
// settings; the registered factory decodes the settings into its own struct.
//
//	reg := factory.NewRegistry[metrics.MetricsSink]()
//	_ = reg.Register("nop", func(map[string]any) (metrics.MetricsSink, error) {
//	    return metrics.NopSink{}, nil
//	})
//	sink, err := reg.Create(factory.ModuleConfig{Type: "nop"})
package factory
