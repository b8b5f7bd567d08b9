// Package nerdfonts holds the Nerd Font glyphs used in CLI and notification output.
package nerdfonts

// Calendar symbols
const (
	Calendar      = "\uF073" // 
	CalendarCheck = "\uF274" // 
	CalendarPlus  = "\uF271" // 
	CalendarTimes = "\uF273" // 
)

// Course detail symbols
const (
	Clock     = "\uF017" // 
	Hourglass = "\uF254" // 
	MapPin    = "\uF041" // 
	Repeat    = "\uF01E" // 
	Book      = "\uF02D" // 
)

// Status symbols
const (
	InfoCircle          = "\uF05A" // 
	CheckCircle         = "\uF058" // 
	ExclamationCircle   = "\uF06A" // 
	ExclamationTriangle = "\uF071" // 
	Key                 = "\uF084" // 
	Ban                 = "\uF05E" // 
)
