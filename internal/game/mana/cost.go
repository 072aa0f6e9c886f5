package mana

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Symbol is a single mana symbol key in a cost or production mapping.
type Symbol string

const (
	White     Symbol = "W"
	Blue      Symbol = "U"
	Black     Symbol = "B"
	Red       Symbol = "R"
	Green     Symbol = "G"
	Colorless Symbol = "C"
	Generic   Symbol = "N"
	Variable  Symbol = "X"
)

// colorOrder is the canonical WUBRG ordering used for rendering and color identity.
var colorOrder = []Symbol{White, Blue, Black, Red, Green}

// IsColor reports whether the symbol is one of the five colors.
func (s Symbol) IsColor() bool {
	switch s {
	case White, Blue, Black, Red, Green:
		return true
	}
	return false
}

// Cost maps mana symbols to the amount required (or produced). Hybrid symbols such as "W/U"
// are kept as their own keys.
type Cost map[Symbol]int

var symbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// ParseCost parses a mana string (e.g., "{1}{G}", "{2}{R}{R}", "{X}{R}", "{W/U}").
func ParseCost(costStr string) (Cost, error) {
	cost := Cost{}
	costStr = strings.TrimSpace(costStr)
	if costStr == "" {
		return cost, nil
	}

	matches := symbolPattern.FindAllStringSubmatch(costStr, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("malformed mana cost %q", costStr)
	}

	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))

		switch Symbol(symbol) {
		case White, Blue, Black, Red, Green, Colorless, Variable:
			cost[Symbol(symbol)]++
			continue
		}

		if num, err := strconv.Atoi(symbol); err == nil {
			if num < 0 {
				return nil, fmt.Errorf("negative generic mana {%s}", symbol)
			}
			if num > 0 {
				cost[Generic] += num
			}
			continue
		}

		if left, right, ok := strings.Cut(symbol, "/"); ok && validHybridHalf(left) && validHybridHalf(right) {
			cost[Symbol(symbol)]++
			continue
		}

		return nil, fmt.Errorf("unknown mana symbol: {%s}", symbol)
	}

	return cost, nil
}

func validHybridHalf(s string) bool {
	switch Symbol(s) {
	case White, Blue, Black, Red, Green, Colorless:
		return true
	case "P":
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n > 0
}

// Converted returns the converted mana cost (mana value). X counts as zero; a hybrid symbol
// counts as its largest half.
func (c Cost) Converted() int {
	total := 0
	for symbol, amount := range c {
		switch {
		case symbol == Variable:
		case symbol == Generic:
			total += amount
		case strings.Contains(string(symbol), "/"):
			left, right, _ := strings.Cut(string(symbol), "/")
			total += amount * max(hybridValue(left), hybridValue(right))
		default:
			total += amount
		}
	}
	return total
}

func hybridValue(half string) int {
	if n, err := strconv.Atoi(half); err == nil {
		return n
	}
	if half == "P" {
		return 0
	}
	return 1
}

// Colors returns the color identity of the cost in WUBRG order.
func (c Cost) Colors() []Symbol {
	seen := make(map[Symbol]bool)
	for symbol, amount := range c {
		if amount <= 0 {
			continue
		}
		for _, part := range strings.Split(string(symbol), "/") {
			if Symbol(part).IsColor() {
				seen[Symbol(part)] = true
			}
		}
	}

	colors := make([]Symbol, 0, len(seen))
	for _, color := range colorOrder {
		if seen[color] {
			colors = append(colors, color)
		}
	}
	return colors
}

// Total returns the sum of all amounts, X excluded.
func (c Cost) Total() int {
	total := 0
	for symbol, amount := range c {
		if symbol != Variable {
			total += amount
		}
	}
	return total
}

// Clone returns an independent copy of the mapping.
func (c Cost) Clone() Cost {
	if c == nil {
		return nil
	}
	out := make(Cost, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// String renders the cost in canonical order: X, generic, hybrid, WUBRG, colorless.
func (c Cost) String() string {
	var b strings.Builder

	for i := 0; i < c[Variable]; i++ {
		b.WriteString("{X}")
	}
	if n := c[Generic]; n > 0 {
		fmt.Fprintf(&b, "{%d}", n)
	}

	hybrids := make([]string, 0)
	for symbol := range c {
		if strings.Contains(string(symbol), "/") {
			hybrids = append(hybrids, string(symbol))
		}
	}
	sort.Strings(hybrids)
	for _, h := range hybrids {
		for i := 0; i < c[Symbol(h)]; i++ {
			fmt.Fprintf(&b, "{%s}", h)
		}
	}

	for _, color := range append(append([]Symbol(nil), colorOrder...), Colorless) {
		for i := 0; i < c[color]; i++ {
			fmt.Fprintf(&b, "{%s}", color)
		}
	}
	return b.String()
}
