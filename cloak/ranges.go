package cloak

import "fmt"

// ColorRange 检测空间下的上下界（H, S, V），闭区间
//
// 不校验 Lower[i] <= Upper[i]：反转的区间按字面比较，不做色相环绕，结果通常是空掩码
type ColorRange struct {
	Lower [3]uint8 `json:"lower" yaml:"lower"`
	Upper [3]uint8 `json:"upper" yaml:"upper"`
}

func (r ColorRange) Contains(h, s, v uint8) bool {
	return h >= r.Lower[0] && h <= r.Upper[0] &&
		s >= r.Lower[1] && s <= r.Upper[1] &&
		v >= r.Lower[2] && v <= r.Upper[2]
}

func (r ColorRange) String() string {
	return fmt.Sprintf("%v-%v", r.Lower, r.Upper)
}

const DefaultColor = "blue"

var namedRanges = map[string]ColorRange{
	"red":    {Lower: [3]uint8{0, 50, 50}, Upper: [3]uint8{10, 255, 255}},
	"blue":   {Lower: [3]uint8{100, 50, 50}, Upper: [3]uint8{130, 255, 255}},
	"green":  {Lower: [3]uint8{40, 50, 50}, Upper: [3]uint8{80, 255, 255}},
	"yellow": {Lower: [3]uint8{20, 50, 50}, Upper: [3]uint8{40, 255, 255}},
	"purple": {Lower: [3]uint8{130, 50, 50}, Upper: [3]uint8{160, 255, 255}},
}

var colorNames = []string{"red", "blue", "green", "yellow", "purple"}

// LookupRange 按名称查表，名称区分大小写
func LookupRange(name string) (ColorRange, bool) {
	r, ok := namedRanges[name]
	return r, ok
}

// ColorNames 固定顺序的可用颜色名
func ColorNames() []string {
	out := make([]string, len(colorNames))
	copy(out, colorNames)
	return out
}
