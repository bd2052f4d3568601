// Package glyphs holds the nerd-font icons the module renderers share.
// The bar host is expected to run a patched font; every glyph here is a
// single rune from the Material Design or Codicon private-use planes.
package glyphs

const (
	// IconSpacer separates an icon from the text that follows it.
	IconSpacer = "  "

	Alert        = "\U000F0026"
	TimerOutline = "\U000F051B"

	CPU64Bit = "\U000F0EE0"
	CPUOcto  = ""
	Memory   = "\U000F035B"
	Harddisk = "\U000F02CA"

	Network        = "\U000F06F3"
	NetworkOff     = "\U000F0C9B"
	WifiStrength4  = "\U000F0928"
	WifiOff        = "\U000F092D"
	ArrowSmallUp   = ""
	ArrowSmallDown = ""

	GraphLine      = ""
	PackageVariant = "\U000F03D6"

	WeatherSunny             = ""
	WeatherNight             = "\U000F0594"
	WeatherPartlyCloudy      = "\U000F0595"
	WeatherNightPartlyCloudy = "\U000F0F31"
	WeatherCloudy            = "\U000F0590"
	WeatherFog               = "\U000F0591"
	WeatherLightning         = "\U000F0593"
	WeatherPouring           = "\U000F0596"
	WeatherRainy             = "\U000F0597"
	WeatherSnowy             = "\U000F0598"
	WeatherHazy              = "\U000F0F30"
	WeatherPartlyRainy       = "\U000F0F33"
	WeatherPartlySnowy       = "\U000F0F34"
)
