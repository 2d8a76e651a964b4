// Package weathercode maps WMO weather interpretation codes to descriptions
// and icon identifiers.
package weathercode

import (
	"fmt"
	"strings"
)

// Icon identifiers follow the OpenWeatherMap icon set.
const (
	IconClearDay     = "01d"
	IconPartlyCloudy = "02d"
	IconOvercast     = "03d"
	IconRain         = "10d"
	IconSnow         = "13d"
	IconFog          = "50d"
	IconThunderstorm = "11d"

	UnknownDescription   = "Unknown weather"
	UnknownDescriptionZH = "未知天气"
)

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

type Description struct {
	Description string
	Icon        string
}

// WMO Weather interpretation codes (WW)
var descriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

var descriptionsZH = map[int]string{
	0:  "晴天",
	1:  "晴间多云",
	2:  "多云",
	3:  "阴天",
	45: "雾",
	48: "雾凇",
	51: "小毛毛雨",
	53: "毛毛雨",
	55: "大毛毛雨",
	56: "冻毛毛雨",
	57: "强冻毛毛雨",
	61: "小雨",
	63: "中雨",
	65: "大雨",
	66: "冻雨",
	67: "强冻雨",
	71: "小雪",
	73: "中雪",
	75: "大雪",
	77: "雪粒",
	80: "小阵雨",
	81: "中阵雨",
	82: "大阵雨",
	85: "小阵雪",
	86: "大阵雪",
	95: "雷暴",
	96: "雷暴伴有冰雹",
	99: "大雷暴伴有冰雹",
}

// Describe returns the English description and icon for a weather code.
// Codes missing from the table get UnknownDescription and the clear-day icon.
func Describe(code int) Description {
	return DescribeIn("en", code)
}

// DescribeIn is Describe with descriptions in the given language. Chinese
// ("zh", "zh-CN", ...) has its own table; every other language falls back
// to English. The icon does not depend on the language.
func DescribeIn(language string, code int) Description {
	table, unknown := descriptions, UnknownDescription
	if isChinese(language) {
		table, unknown = descriptionsZH, UnknownDescriptionZH
	}

	desc, ok := table[code]
	if !ok {
		return Description{Description: unknown, Icon: IconClearDay}
	}
	return Description{Description: desc, Icon: Icon(code)}
}

func isChinese(language string) bool {
	lang := strings.ToLower(strings.TrimSpace(language))
	return lang == "zh" || strings.HasPrefix(lang, "zh-") || strings.HasPrefix(lang, "zh_")
}

// Icon buckets a weather code by numeric range. Buckets are checked in
// order, so 66 (freezing rain) lands in rain rather than any later band.
func Icon(code int) string {
	switch {
	case code == 0:
		return IconClearDay
	case code == 1 || code == 2:
		return IconPartlyCloudy
	case code == 3:
		return IconOvercast
	case code >= 51 && code <= 67:
		return IconRain
	case code >= 71 && code <= 77:
		return IconSnow
	case code == 45 || code == 48:
		return IconFog
	case code >= 95:
		return IconThunderstorm
	default:
		return IconClearDay
	}
}

// IconURL returns the image URL for an icon identifier.
func IconURL(icon string) string {
	return fmt.Sprintf(iconURLFormat, icon)
}

// Known reports whether the code has a table entry.
func Known(code int) bool {
	_, ok := descriptions[code]
	return ok
}
