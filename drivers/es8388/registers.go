// Package es8388 drives an ES8388 audio codec: a fixed register program over
// I²C brings the chip from power-on to an unmuted 0 dB playback state, and a
// feed goroutine keeps its I²S input supplied with PCM frames.
package es8388

import "audiosink-go/x/conv"

const (
	// 7-bit I²C address with CE low (0x20 as an 8-bit write address).
	AddressDefault = 0x10

	// --- Register sub-addresses (8-bit) ---

	// Chip control / power
	regControl1   = 0x00
	regControl2   = 0x01
	regChipPower  = 0x02
	regADCPower   = 0x03
	regDACPower   = 0x04
	regMasterMode = 0x08

	// ADC
	regADCControl1 = 0x09 // PGA gain
	regADCControl2 = 0x0A // input select
	regADCControl3 = 0x0B
	regADCControl4 = 0x0C // word length / format
	regADCControl5 = 0x0D // MCLK/Fs
	regADCControl8 = 0x10 // left volume
	regADCControl9 = 0x11 // right volume

	// DAC
	regDACControl1  = 0x17 // word length / format
	regDACControl2  = 0x18 // MCLK/Fs
	regDACControl3  = 0x19 // mute
	regDACControl4  = 0x1A // left digital volume
	regDACControl5  = 0x1B // right digital volume
	regDACControl16 = 0x26 // mixer input select
	regDACControl17 = 0x27 // left mixer
	regDACControl20 = 0x2A // right mixer
	regDACControl21 = 0x2B // shared LRCK, MCLK input
	regDACControl23 = 0x2D // output resistance
	regDACControl24 = 0x2E // LOUT1 volume
	regDACControl25 = 0x2F // ROUT1 volume
	regDACControl26 = 0x30 // LOUT2 volume
	regDACControl27 = 0x31 // ROUT2 volume
)

// DACCONTROL3 values.
const (
	dacMute   = 0x04
	dacUnmute = 0x00
)

// RegName returns the datasheet name of a register, or "" if unknown.
func RegName(reg byte) string {
	switch reg {
	case regControl1:
		return "CONTROL1"
	case regControl2:
		return "CONTROL2"
	case regChipPower:
		return "CHIPPOWER"
	case regADCPower:
		return "ADCPOWER"
	case regDACPower:
		return "DACPOWER"
	case regMasterMode:
		return "MASTERMODE"
	case regADCControl1:
		return "ADCCONTROL1"
	case regADCControl2:
		return "ADCCONTROL2"
	case regADCControl3:
		return "ADCCONTROL3"
	case regADCControl4:
		return "ADCCONTROL4"
	case regADCControl5:
		return "ADCCONTROL5"
	case regADCControl8:
		return "ADCCONTROL8"
	case regADCControl9:
		return "ADCCONTROL9"
	case regDACControl1:
		return "DACCONTROL1"
	case regDACControl2:
		return "DACCONTROL2"
	case regDACControl3:
		return "DACCONTROL3"
	case regDACControl4:
		return "DACCONTROL4"
	case regDACControl5:
		return "DACCONTROL5"
	case regDACControl16:
		return "DACCONTROL16"
	case regDACControl17:
		return "DACCONTROL17"
	case regDACControl20:
		return "DACCONTROL20"
	case regDACControl21:
		return "DACCONTROL21"
	case regDACControl23:
		return "DACCONTROL23"
	case regDACControl24:
		return "DACCONTROL24"
	case regDACControl25:
		return "DACCONTROL25"
	case regDACControl26:
		return "DACCONTROL26"
	case regDACControl27:
		return "DACCONTROL27"
	}
	return "REG" + conv.Hex8(reg)
}
