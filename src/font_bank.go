package borzoi

/*------------------------------------------------------------------
 *
 * Purpose:	The font bank: an ordered stack of loaded SoundFonts
 *		with per-font bank number offsets.
 *
 * Description:	Preset lookup starts at the most recently loaded font
 *		and works down the stack, so a later font can shadow
 *		individual presets of an earlier one.  Fonts are
 *		addressed by an opaque id that stays stable while other
 *		fonts come and go.
 *
 *----------------------------------------------------------------*/

// FontID identifies a loaded SoundFont.
type FontID uint

type fontEntry struct {
	id   FontID
	font *SoundFont
}

type fontBank struct {
	// Most recently added font first.
	fonts   []fontEntry
	next_id FontID

	bank_offsets map[FontID]uint32
}

func new_font_bank() *fontBank {
	return &fontBank{bank_offsets: make(map[FontID]uint32)}
}

// add_font puts a font on top of the stack and returns its id.
func (b *fontBank) add_font(font *SoundFont) FontID {
	id := b.next_id
	b.next_id++
	b.fonts = append([]fontEntry{{id: id, font: font}}, b.fonts...)
	return id
}

// remove_font takes a font off the stack.
func (b *fontBank) remove_font(id FontID) *SoundFont {
	for i, e := range b.fonts {
		if e.id == id {
			b.fonts = append(b.fonts[:i], b.fonts[i+1:]...)
			delete(b.bank_offsets, id)
			return e.font
		}
	}
	return nil
}

func (b *fontBank) count() int {
	return len(b.fonts)
}

// nth_font returns a font by stack position; 0 is the top.
func (b *fontBank) nth_font(num int) *SoundFont {
	if num < 0 || num >= len(b.fonts) {
		return nil
	}
	return b.fonts[num].font
}

func (b *fontBank) font(id FontID) *SoundFont {
	for _, e := range b.fonts {
		if e.id == id {
			return e.font
		}
	}
	return nil
}

func (b *fontBank) set_bank_offset(id FontID, offset uint32) {
	b.bank_offsets[id] = offset
}

func (b *fontBank) bank_offset(id FontID) uint32 {
	return b.bank_offsets[id]
}

// find_preset searches the stack top-down for (bank, program), taking
// each font's bank offset into account.
func (b *fontBank) find_preset(banknum, prognum uint32) (FontID, *Preset, bool) {
	for _, e := range b.fonts {
		offset := b.bank_offsets[e.id]
		if banknum < offset {
			continue
		}
		if p := e.font.Preset(banknum-offset, prognum); p != nil {
			return e.id, p, true
		}
	}
	return 0, nil, false
}

// preset looks up (bank, program) inside one specific font.
func (b *fontBank) preset(id FontID, banknum, prognum uint32) *Preset {
	font := b.font(id)
	if font == nil {
		return nil
	}
	offset := b.bank_offsets[id]
	if banknum < offset {
		return nil
	}
	return font.Preset(banknum-offset, prognum)
}
