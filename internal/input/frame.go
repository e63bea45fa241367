package input

// Touch bridge wire format. The microcontroller polling the MPR121 streams the
// sensor's touched() register as:
//
//	[SOF0][SOF1][LEN][CMD][lo][hi][CKS]
//
// LEN counts CMD plus payload, CKS is LEN ^ CMD ^ lo ^ hi.
const (
	SOF0       = 0xAA
	SOF1       = 0x55
	CmdTouched = 0x20
	touchedLen = 3
)

// EncodeTouchFrame builds the frame the bridge sends for mask.
func EncodeTouchFrame(mask uint16) []byte {
	lo, hi := byte(mask), byte(mask>>8)
	cks := byte(touchedLen) ^ CmdTouched ^ lo ^ hi
	return []byte{SOF0, SOF1, touchedLen, CmdTouched, lo, hi, cks}
}

// frameDecoder reassembles touch frames from an arbitrary byte stream,
// resynchronising on the start-of-frame marker after corruption.
type frameDecoder struct {
	buf []byte
}

// Feed appends p and returns every complete, valid touched mask found.
func (d *frameDecoder) Feed(p []byte) []uint16 {
	d.buf = append(d.buf, p...)
	var out []uint16

	for {
		start := -1
		for i := 0; i+1 < len(d.buf); i++ {
			if d.buf[i] == SOF0 && d.buf[i+1] == SOF1 {
				start = i
				break
			}
		}
		if start < 0 {
			// keep a trailing SOF0 that may pair with the next read
			if n := len(d.buf); n > 0 && d.buf[n-1] == SOF0 {
				d.buf = d.buf[n-1:]
			} else {
				d.buf = d.buf[:0]
			}
			return out
		}
		d.buf = d.buf[start:]

		if len(d.buf) < 3 {
			return out
		}
		n := int(d.buf[2])
		total := 3 + n + 1
		if n == 0 {
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < total {
			return out
		}

		frame := d.buf[:total]
		cks := frame[2]
		for _, b := range frame[3 : total-1] {
			cks ^= b
		}
		if cks != frame[total-1] {
			d.buf = d.buf[1:]
			continue
		}
		if frame[3] == CmdTouched && n == touchedLen {
			out = append(out, uint16(frame[4])|uint16(frame[5])<<8)
		}
		d.buf = d.buf[total:]
	}
}
