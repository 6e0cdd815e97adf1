package view

// 静的ページの掲載内容。

// Highlight はランディングページの訴求項目。
type Highlight struct {
	Title string
	Text  string
}

// Testimonial はランディングページの利用者の声。
type Testimonial struct {
	Quote  string
	Author string
}

// LandingPage はランディングページの表示データ。
type LandingPage struct {
	Base
	Highlights   []Highlight
	Testimonials []Testimonial
}

// Benchmark はモデルの精度とコストの比較値。
type Benchmark struct {
	Name     string
	Accuracy int
	Cost     int
}

// Milestone は開発ロードマップの1段階。
type Milestone struct {
	Phase string
	Goal  string
}

// ProductPage は製品紹介ページの表示データ。
type ProductPage struct {
	Base
	Benchmarks []Benchmark
	Paragraphs []string
	Roadmap    []Milestone
}

// NewLandingPage はランディングページの表示データを生成する。
func NewLandingPage(base Base) LandingPage {
	return LandingPage{
		Base: base,
		Highlights: []Highlight{
			{Title: "100% Secured", Text: "Shielding Progress, Safeguarding Future: Your AI Security Partner"},
			{Title: "Everyday Excellence", Text: "Revolutionizing Work, Redefining Play: AI Excellence for Every Day."},
			{Title: "QueenDahyun: A Affection to Inspiration in Innovation", Text: "Coming Soon In Aug 2024"},
		},
		Testimonials: []Testimonial{
			{Quote: "QueenDahyun changed the way our team plans its week.", Author: "Early access user"},
			{Quote: "An assistant that actually finishes the task.", Author: "Beta tester"},
		},
	}
}

// NewProductPage は製品紹介ページの表示データを生成する。
func NewProductPage(base Base) ProductPage {
	return ProductPage{
		Base: base,
		Benchmarks: []Benchmark{
			{Name: "7B Model", Accuracy: 67, Cost: 430},
			{Name: "30B Model", Accuracy: 95, Cost: 3400},
			{Name: "OpenAI O3 (Comparison)", Accuracy: 87, Cost: 1000000},
		},
		Paragraphs: []string{
			"Our current implementation utilizes the open-source Qwen model enhanced with our mechanism, as we don't currently have the massive infrastructure to build models from scratch. However, our original self-evolution architecture uses diffusion mechanism instead of autoregressive approaches.",
			"We've built a 0.5B parameter proof-of-concept model from scratch that performs equivalent to traditional 7B parameter models. Additionally, our Qwen implementation provides 5-6x faster inference than our experimental model.",
			"With substantial funding, we plan to build large models from scratch on the original self-evolution architecture, which will increase performance and efficiency by orders of magnitude.",
		},
		Roadmap: []Milestone{
			{Phase: "Phase 1", Goal: "Self-evolution mechanism on open-source models"},
			{Phase: "Phase 2", Goal: "Proof-of-concept diffusion model built from scratch"},
			{Phase: "Phase 3", Goal: "Large-scale models on the self-evolution architecture"},
		},
	}
}
