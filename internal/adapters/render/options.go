package render

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithMaxChartPoints caps how many profile points the HTML chart plots.
// Longer profiles are downsampled by stride.
func WithMaxChartPoints(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxChartPoints = n
		}
	}
}

// WithPNGSize sets the PNG dimensions in inches.
func WithPNGSize(widthIn, heightIn float64) Option {
	return func(r *Renderer) {
		if widthIn > 0 && heightIn > 0 {
			r.pngWidthIn = widthIn
			r.pngHeightIn = heightIn
		}
	}
}
