package handlers

import "accelodash/internal/model"

// defaultPalette 公司分组默认色板，按公司加入顺序轮转分配
var defaultPalette = []model.CompanyColor{
	{Value: "#4472C4", Contrast: "#FFFFFF", Name: "Blue"},
	{Value: "#ED7D31", Contrast: "#FFFFFF", Name: "Orange"},
	{Value: "#70AD47", Contrast: "#FFFFFF", Name: "Green"},
	{Value: "#FFC000", Contrast: "#333333", Name: "Amber"},
	{Value: "#7030A0", Contrast: "#FFFFFF", Name: "Purple"},
	{Value: "#C00000", Contrast: "#FFFFFF", Name: "Red"},
	{Value: "#2E9BA6", Contrast: "#FFFFFF", Name: "Teal"},
	{Value: "#808080", Contrast: "#FFFFFF", Name: "Gray"},
}

// pickPaletteColor 取色板第 n 个颜色（循环）
func pickPaletteColor(n int) model.CompanyColor {
	if n < 0 {
		n = 0
	}
	return defaultPalette[n%len(defaultPalette)]
}
