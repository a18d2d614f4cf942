package brochure

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var firstNumber = regexp.MustCompile(`\d+`)

// SortImages returns a copy of urls ordered by the first run of digits in
// each file name. Names without digits sort as 0; ties keep their order.
func SortImages(urls []string) []string {
	out := append([]string{}, urls...)
	sort.SliceStable(out, func(i, j int) bool {
		return imageNumber(out[i]) < imageNumber(out[j])
	})
	return out
}

func imageNumber(u string) int64 {
	name := u
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	m := firstNumber.FindString(name)
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return math.MaxInt64
	}
	return n
}
