package langid

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"english", "english", 1.0},
		{"xyz", "abc", 0.0},
		{"", "", 1.0},
		{"a", "b", 0.0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{
		{"english", "engl"},
		{"german", "ngerman"},
		{"portuguese", "portuges"},
		{"no", "norsk"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %v but reversed = %v", p[0], p[1], ab, ba)
		}
	}
}

func TestSimilarityCountsMultisetOnce(t *testing.T) {
	// "aaa" has bigrams [aa aa], "aa" has [aa]: one consumable match.
	want := 2 * 1.0 / 3.0
	if got := Similarity("aaa", "aa"); got != want {
		t.Errorf("Similarity(aaa, aa) = %v, want %v", got, want)
	}
}

func TestFromPrefix(t *testing.T) {
	tests := []struct {
		code   string
		want   string
		wantOK bool
	}{
		// "engli" prefixes only the english group.
		{"engli", "english", true},
		// "s" prefixes serbian, slovak, spanish, swedish, ... -> ambiguous.
		{"s", "", false},
		// "portug" prefixes portuguese and portuges, both in one group.
		{"portug", "portuguese", true},
		{"", "", false},
		{"zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, ok := FromPrefix(tt.code)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FromPrefix(%q) = (%q, %v), want (%q, %v)", tt.code, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFromPrefixMemoized(t *testing.T) {
	// Second call must return the same answer from the memo.
	first, ok1 := FromPrefix("engli")
	second, ok2 := FromPrefix("engli")
	if first != second || ok1 != ok2 {
		t.Errorf("memoized FromPrefix disagrees: (%q, %v) vs (%q, %v)", first, ok1, second, ok2)
	}
}

func TestClosestRanksExactMatchFirst(t *testing.T) {
	ranked := Closest("english")
	if len(ranked) == 0 {
		t.Fatal("Closest returned no matches")
	}
	if ranked[0].Name != "english" || ranked[0].Score != 1.0 {
		t.Errorf("Closest(english)[0] = %+v, want english at 1.0", ranked[0])
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("Closest not sorted descending at %d: %v > %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		tag    string
		want   string
		wantOK bool
	}{
		{"en", "english", true},
		{"en-GB", "british", true},
		{"en_US", "english", true},
		{"de-DE", "german", true},
		{"de-AT", "austrian", true},
		{"pt-BR", "brazilian", true},
		{"fr", "french", true},
		{"englis", "english", true}, // unique prefix of the english group
		{"klingon", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := Resolve(tt.tag)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.tag, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsEnglish(t *testing.T) {
	for _, name := range []string{"american", "british", "canadian", "english", "australian", "newzealand"} {
		if !IsEnglish(name) {
			t.Errorf("IsEnglish(%q) = false, want true", name)
		}
	}
	for _, name := range []string{"german", "french", ""} {
		if IsEnglish(name) {
			t.Errorf("IsEnglish(%q) = true, want false", name)
		}
	}
}
