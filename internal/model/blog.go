package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ブロックの種類
const (
	BlockText  = "text"
	BlockImage = "image"
	BlockVideo = "video"
)

// ContentBlock はブログ本文を構成する1ブロック。
// Contentはtextの場合HTML、image/videoの場合メディアのパスを保持する。
type ContentBlock struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// BlockList はブロック配列。
// ブログAPIは本文を文字列のまま返すことがあるため、
// 文字列は単一のtextブロックとして扱う。
type BlockList []ContentBlock

// UnmarshalJSON は配列と文字列の両方の形式を受け付ける。
func (b *BlockList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*b = nil
		return nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("failed to decode content string: %w", err)
		}
		*b = BlockList{{Type: BlockText, Content: s}}
		return nil
	}

	var blocks []ContentBlock
	if err := json.Unmarshal(trimmed, &blocks); err != nil {
		return fmt.Errorf("failed to decode content blocks: %w", err)
	}
	*b = blocks
	return nil
}

// FirstText は最初のtextブロックを返す。存在しない場合はfalseを返す。
func (b BlockList) FirstText() (ContentBlock, bool) {
	for _, block := range b {
		if block.Type == BlockText {
			return block, true
		}
	}
	return ContentBlock{}, false
}

// BlogPost はブログAPIが返す記事。一覧と詳細で同じ形を共有する。
type BlogPost struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Content   BlockList `json:"content"`
	ImagePath string    `json:"image_path,omitempty"`
	CreatedAt string    `json:"created_at"`
}
