// Package countries はサインアップフォームで選択可能な国名の一覧を提供する。
//
// 国名はgolang.org/x/textのCLDRデータから英語表記で生成する。
package countries

import (
	"slices"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

var names = sync.OnceValue(build)

// Names は国名の一覧をアルファベット順で返す。
// 戻り値は呼び出し側で変更してよいコピー。
func Names() []string {
	return slices.Clone(names())
}

// Contains は国名が一覧に含まれるかを返す。
func Contains(name string) bool {
	if name == "" {
		return false
	}
	_, found := slices.BinarySearch(names(), name)
	return found
}

// build はISO 3166-1の2文字コードを総当たりし、国に該当する地域の英語名を集める。
func build() []string {
	namer := display.Regions(language.English)
	seen := make(map[string]struct{})
	var out []string

	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			region, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !region.IsCountry() {
				continue
			}
			name := namer.Name(region)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}

	slices.Sort(out)
	return out
}
