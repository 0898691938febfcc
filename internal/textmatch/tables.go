package textmatch

// Tables holds the data-driven word lists used by the normalizer and the
// synonym expander. Behaviour changes go here, not into matching code.
type Tables struct {
	// Suffixes are stripped from the end of a token, repeatedly, longest first.
	Suffixes []string `mapstructure:"suffixes"`
	// Particles are single-rune grammatical particles stripped once from the
	// end of a token when at least two runes remain.
	Particles []string `mapstructure:"particles"`
	// Keep lists word endings whose last rune only looks like a particle.
	// A token ending in one of them is never particle-stripped.
	Keep []string `mapstructure:"keep"`
	// Fillers are tokens that carry no target meaning ("버튼", "click").
	Fillers []string `mapstructure:"fillers"`
	// Synonyms are groups of interchangeable terms.
	Synonyms [][]string `mapstructure:"synonyms"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() Tables {
	return Tables{
		Suffixes: []string{
			"해주십시오", "해주세요", "해줄래", "해줘요", "해줘", "해봐", "해라",
			"주세요", "하세요", "줘요", "줘",
			"클릭", "버튼",
		},
		Particles: []string{"을", "를", "은", "는", "이", "가", "에", "의", "도", "로", "와", "과"},
		Keep: []string{
			"정확도", "만족도", "난이도", "완성도", "중요도", "선호도", "적합도",
			"결과", "경로", "효과", "동의", "회의", "워크플로",
		},
		Fillers: []string{
			"버튼", "눌러", "누르기", "클릭", "좀", "선택",
			"click", "press", "tap", "button", "btn", "please",
		},
		Synonyms: [][]string{
			{"apply", "지원", "지원하기", "신청", "신청하기"},
			{"detail", "details", "상세", "상세보기", "보기", "열기", "view", "open"},
			{"delete", "remove", "삭제", "삭제하기", "제거"},
			{"upload", "업로드", "file", "파일", "첨부"},
			{"pdf", "ocr", "스캔", "문서인식", "문서", "scan"},
			{"cancel", "취소", "닫기", "close"},
			{"save", "저장", "저장하기"},
			{"edit", "수정", "편집", "수정하기"},
			{"submit", "제출", "제출하기", "등록"},
			{"search", "검색", "찾기"},
			{"login", "signin", "로그인"},
			{"next", "다음"},
			{"prev", "previous", "이전"},
		},
	}
}

// Merge returns t with the non-empty lists of other appended. Synonym groups
// are added, never replaced.
func (t Tables) Merge(other Tables) Tables {
	out := Tables{
		Suffixes:  append(append([]string(nil), t.Suffixes...), other.Suffixes...),
		Particles: append(append([]string(nil), t.Particles...), other.Particles...),
		Keep:      append(append([]string(nil), t.Keep...), other.Keep...),
		Fillers:   append(append([]string(nil), t.Fillers...), other.Fillers...),
		Synonyms:  append(append([][]string(nil), t.Synonyms...), other.Synonyms...),
	}
	return out
}
