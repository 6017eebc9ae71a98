// Package builtin assembles the built-in detector set in a fixed order.
package builtin

import (
	"github.com/steph-dove/conventions/internal/detect"
	"github.com/steph-dove/conventions/internal/detect/generic"
	"github.com/steph-dove/conventions/internal/detect/godetect"
	"github.com/steph-dove/conventions/internal/detect/nodedetect"
	"github.com/steph-dove/conventions/internal/detect/pydetect"
)

// All returns the built-in detectors. Order is stable and determines
// report ordering for equal-score results.
func All() []detect.Detector {
	return []detect.Detector{
		generic.NewLayout(),
		pydetect.NewTyping(),
		pydetect.NewDocstrings(),
		pydetect.NewNaming(),
		pydetect.NewTesting(),
		pydetect.NewDIStyle(),
		pydetect.NewErrorHandling(),
		godetect.NewFramework(),
		godetect.NewErrorHandling(),
		godetect.NewTesting(),
		godetect.NewInterfaces(),
		nodedetect.NewTypeScript(),
		nodedetect.NewFramework(),
		nodedetect.NewTesting(),
	}
}
