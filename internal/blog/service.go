// Package blog はブログAPIから取得した記事を一覧・詳細表示用に整形する。
package blog

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hitoshi/queendahyun/internal/model"
	"github.com/hitoshi/queendahyun/internal/security"
)

// ユーザー向けメッセージ
const (
	MessageListFailed = "Failed to fetch blog posts. Please try again later."
	MessagePostFailed = "Failed to fetch the blog post. Please try again later."
	NoPreview         = "No preview available"

	previewLength = 100
)

// ErrNotFound は指定タイトルの記事が存在しないことを表す。
var ErrNotFound = errors.New("blog post not found")

// API はブログAPIの操作。
type API interface {
	ListBlogs(ctx context.Context) ([]model.BlogPost, error)
	GetBlogByTitle(ctx context.Context, title string) (*model.BlogPost, error)
}

// Summary は一覧に表示する記事の要約。
type Summary struct {
	Title    string
	Slug     string
	Preview  string
	ImageURL string
	Date     string
}

// Block は詳細ページに表示する本文ブロック。
// textの場合はHTML、image・videoの場合はURLを保持する。
type Block struct {
	Type string
	HTML template.HTML
	URL  string
}

// Post は詳細ページに表示する記事。
type Post struct {
	Title    string
	ImageURL string
	Date     string
	Blocks   []Block
}

// Service はブログ記事の取得と整形を行う。
type Service struct {
	api          API
	sanitizer    security.HTMLSanitizer
	mediaBaseURL string
	logger       *slog.Logger
}

// NewService はServiceを生成する。
func NewService(api API, sanitizer security.HTMLSanitizer, mediaBaseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:          api,
		sanitizer:    sanitizer,
		mediaBaseURL: strings.TrimRight(mediaBaseURL, "/"),
		logger:       logger,
	}
}

// List は記事一覧を取得し、要約に変換する。
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	posts, err := s.api.ListBlogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}

	summaries := make([]Summary, 0, len(posts))
	for _, p := range posts {
		summaries = append(summaries, Summary{
			Title:    p.Title,
			Slug:     Slug(p.Title),
			Preview:  s.Preview(p.Content),
			ImageURL: s.MediaURL(p.ImagePath),
			Date:     formatDate(p.CreatedAt),
		})
	}
	return summaries, nil
}

// Get はURLスラッグから記事を取得する。
// 記事が存在しない場合はErrNotFoundを返す。
func (s *Service) Get(ctx context.Context, slug string) (*Post, error) {
	title := TitleFromSlug(slug)
	if strings.TrimSpace(title) == "" {
		return nil, ErrNotFound
	}

	p, err := s.api.GetBlogByTitle(ctx, title)
	if err != nil {
		if model.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get blog post %q: %w", title, err)
	}

	post := &Post{
		Title:    p.Title,
		ImageURL: s.MediaURL(p.ImagePath),
		Date:     formatDate(p.CreatedAt),
	}
	for _, b := range p.Content {
		switch b.Type {
		case model.BlockText:
			post.Blocks = append(post.Blocks, Block{
				Type: b.Type,
				// サニタイズ済みのHTMLのみをテンプレートに渡す
				HTML: template.HTML(s.sanitizer.Sanitize(b.Content)),
			})
		case model.BlockImage, model.BlockVideo:
			post.Blocks = append(post.Blocks, Block{Type: b.Type, URL: s.MediaURL(b.Content)})
		default:
			s.logger.Debug("未知のブロック種別をスキップしました", slog.String("type", b.Type))
		}
	}
	return post, nil
}

// Preview は最初のtextブロックからタグを除去し、先頭100文字に"..."を付けて返す。
// textブロックがない場合はNoPreviewを返す。
func (s *Service) Preview(content model.BlockList) string {
	block, ok := content.FirstText()
	if !ok {
		return NoPreview
	}
	text := []rune(s.sanitizer.PlainText(block.Content))
	if len(text) > previewLength {
		text = text[:previewLength]
	}
	return string(text) + "..."
}

// MediaURL はメディアのパスをメディアサーバーのURLに変換する。
// 絶対URLはそのまま返す。空のパスには空文字列を返す。
func (s *Service) MediaURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return path
	}
	if s.mediaBaseURL == "" {
		return path
	}
	return s.mediaBaseURL + "/" + strings.TrimLeft(path, "/")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slug はタイトルをURL用に小文字化し、連続する空白を"-"に置き換える。
func Slug(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(title), "-")
}

// TitleFromSlug はスラッグの"-"を空白に戻す。
func TitleFromSlug(slug string) string {
	return strings.ReplaceAll(slug, "-", " ")
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// formatDate はAPIの日時文字列を表示用に整形する。解析できない場合は元の文字列を返す。
func formatDate(s string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("January 2, 2006")
		}
	}
	return s
}
