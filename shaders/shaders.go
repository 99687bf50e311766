package shaders

import (
	_ "embed"
)

//go:embed prepass.wgsl
var PrepassWGSL string

//go:embed fullscreen.wgsl
var FullscreenWGSL string
