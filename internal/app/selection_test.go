package app

import (
	"testing"

	"mangograb/internal/models"
)

func chapterList(nums ...float64) []*models.Chapter {
	chapters := make([]*models.Chapter, 0, len(nums))
	for _, n := range nums {
		chapters = append(chapters, &models.Chapter{Number: n})
	}
	return chapters
}

func TestSelectChapters(t *testing.T) {
	chapters := chapterList(1, 1.5, 2, 3, 4, 9, 10.5, 11)

	cases := []struct {
		expr string
		want []float64
	}{
		{"all", []float64{1, 1.5, 2, 3, 4, 9, 10.5, 11}},
		{"", []float64{1, 1.5, 2, 3, 4, 9, 10.5, 11}},
		{"3", []float64{3}},
		{"10.5", []float64{10.5}},
		{"1-2", []float64{1, 1.5, 2}},
		{"1,4,9-11", []float64{1, 4, 9, 10.5, 11}},
		{"4-2", []float64{2, 3, 4}},
	}
	for _, tc := range cases {
		got, err := SelectChapters(tc.expr, chapters)
		if err != nil {
			t.Errorf("SelectChapters(%q): %v", tc.expr, err)
			continue
		}
		if len(got) != len(tc.want) {
			t.Errorf("SelectChapters(%q) = %d chapters, want %d", tc.expr, len(got), len(tc.want))
			continue
		}
		for i, ch := range got {
			if ch.Number != tc.want[i] {
				t.Errorf("SelectChapters(%q)[%d] = %v, want %v", tc.expr, i, ch.Number, tc.want[i])
			}
		}
	}
}

func TestSelectChaptersErrors(t *testing.T) {
	chapters := chapterList(1, 2, 3)
	for _, expr := range []string{"abc", "1-x", "99", ","} {
		if _, err := SelectChapters(expr, chapters); err == nil {
			t.Errorf("SelectChapters(%q) should fail", expr)
		}
	}
}

func TestValidateSelection(t *testing.T) {
	for _, expr := range []string{"all", "", "3", "3-7", "1,4,9-11", "10.5"} {
		if err := ValidateSelection(expr); err != nil {
			t.Errorf("ValidateSelection(%q): %v", expr, err)
		}
	}
	for _, expr := range []string{"abc", "1-", "-3", ","} {
		if err := ValidateSelection(expr); err == nil {
			t.Errorf("ValidateSelection(%q) should fail", expr)
		}
	}
}
