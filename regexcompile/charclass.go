package regexcompile

// parseClass parses a POSIX bracket expression: '[' ['^'] class-items ']'.
// class-items are single bytes, 'a-z' ranges, and '[:name:]' POSIX classes.
// A ']' immediately after '[' or '[^' is a literal ']', per POSIX convention.
func (p *parser) parseClass() (node, error) {
	start := p.pos
	p.pos++ // consume '['

	negated := false
	if b, ok := p.peek(); ok && b == '^' {
		negated = true
		p.pos++
	}

	var bitmap [32]byte
	first := true

	for {
		b, ok := p.peek()
		if !ok {
			return nil, &CompileError{Kind: UnmatchedBracket, Pos: start, Err: errUnmatchedBracket}
		}
		if b == ']' && !first {
			p.pos++
			break
		}
		first = false

		if b == '[' && p.pos+1 < len(p.src) && p.src[p.pos+1] == ':' {
			name, err := p.parsePosixClassName()
			if err != nil {
				return nil, err
			}
			if err := addPosixClass(&bitmap, name, p.pos); err != nil {
				return nil, err
			}
			continue
		}

		lo, err := p.parseClassByte()
		if err != nil {
			return nil, err
		}

		if nb, ok2 := p.peek(); ok2 && nb == '-' && p.pos+1 < len(p.src) && p.src[p.pos+1] != ']' {
			p.pos++ // consume '-'
			hi, err := p.parseClassByte()
			if err != nil {
				return nil, err
			}
			if hi < lo {
				return nil, &CompileError{Kind: InvalidRange, Pos: p.pos, Err: errBadRange}
			}
			for c := int(lo); c <= int(hi); c++ {
				setBit(&bitmap, byte(c))
			}
			continue
		}

		setBit(&bitmap, lo)
		if p.caseInsensitive {
			if other, ok3 := caseSwap(lo); ok3 {
				setBit(&bitmap, other)
			}
		}
	}

	return classNode{bitmap: bitmap, negated: negated}, nil
}

func (p *parser) parseClassByte() (byte, error) {
	b, ok := p.peek()
	if !ok {
		return 0, &CompileError{Kind: UnmatchedBracket, Pos: p.pos, Err: errUnmatchedBracket}
	}
	if b == '\\' && p.pos+1 < len(p.src) {
		p.pos++
		esc, _ := p.peek()
		p.pos++
		switch esc {
		case 'n':
			return '\n', nil
		case 't':
			return '\t', nil
		case 'r':
			return '\r', nil
		default:
			return esc, nil
		}
	}
	p.pos++
	return b, nil
}

func (p *parser) parsePosixClassName() (string, error) {
	p.pos += 2 // consume "[:"
	start := p.pos
	for {
		b, ok := p.peek()
		if !ok {
			return "", &CompileError{Kind: UnmatchedBracket, Pos: start, Err: errUnmatchedBracket}
		}
		if b == ':' && p.pos+1 < len(p.src) && p.src[p.pos+1] == ']' {
			name := p.src[start:p.pos]
			p.pos += 2
			return name, nil
		}
		p.pos++
	}
}

func addPosixClass(bitmap *[32]byte, name string, pos int) error {
	var test func(byte) bool
	switch name {
	case "alnum":
		test = func(b byte) bool { return isASCIILetter(b) || isASCIIDigit(b) }
	case "alpha":
		test = isASCIILetter
	case "digit":
		test = isASCIIDigit
	case "space":
		test = func(b byte) bool {
			return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
		}
	case "upper":
		test = func(b byte) bool { return b >= 'A' && b <= 'Z' }
	case "lower":
		test = func(b byte) bool { return b >= 'a' && b <= 'z' }
	case "xdigit":
		test = func(b byte) bool {
			return isASCIIDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
		}
	case "punct":
		test = func(b byte) bool {
			return b >= 0x21 && b <= 0x7E && !isASCIILetter(b) && !isASCIIDigit(b)
		}
	case "cntrl":
		test = func(b byte) bool { return b < 0x20 || b == 0x7F }
	case "print":
		test = func(b byte) bool { return b >= 0x20 && b < 0x7F }
	case "graph":
		test = func(b byte) bool { return b > 0x20 && b < 0x7F }
	default:
		return &CompileError{Kind: InvalidPattern, Pos: pos, Err: errUnknownPosixClass}
	}
	for c := 0; c < 256; c++ {
		if test(byte(c)) {
			setBit(bitmap, byte(c))
		}
	}
	return nil
}

func digitBitmap() [32]byte {
	var bm [32]byte
	for c := '0'; c <= '9'; c++ {
		setBit(&bm, byte(c))
	}
	return bm
}

func spaceBitmap() [32]byte {
	var bm [32]byte
	for _, c := range []byte{' ', '\t', '\n', '\r', '\v', '\f'} {
		setBit(&bm, c)
	}
	return bm
}

func wordBitmap() [32]byte {
	var bm [32]byte
	for c := 'a'; c <= 'z'; c++ {
		setBit(&bm, byte(c))
	}
	for c := 'A'; c <= 'Z'; c++ {
		setBit(&bm, byte(c))
	}
	for c := '0'; c <= '9'; c++ {
		setBit(&bm, byte(c))
	}
	setBit(&bm, '_')
	return bm
}

func caseSwap(b byte) (byte, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return b - 'a' + 'A', true
	case b >= 'A' && b <= 'Z':
		return b - 'A' + 'a', true
	default:
		return 0, false
	}
}
