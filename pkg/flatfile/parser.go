package flatfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
)

// EndOfDump terminates every flatfile.
const EndOfDump = "***END OF DUMP***"

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sends parse warnings to log.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// Parser reads a flatfile and produces a Snapshot.
type Parser struct {
	reader  *bufio.Reader
	snap    *gamedb.Snapshot
	lin     *lineage.Lineage
	log     *zap.Logger
	line    int
	flags   uint32
	headers int
}

// Load reads a flatfile from disk. A nil lineage is detected from the
// header line.
func Load(path string, l *lineage.Lineage, opts ...Option) (*gamedb.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flatfile: %w", err)
	}
	defer f.Close()

	return Parse(f, l, opts...)
}

// Parse reads a flatfile from r. A nil lineage is detected from the header
// line.
func Parse(r io.Reader, l *lineage.Lineage, opts ...Option) (*gamedb.Snapshot, error) {
	br := bufio.NewReaderSize(r, 256*1024)
	if l == nil {
		var err error
		if l, err = Detect(br); err != nil {
			return nil, err
		}
	}
	p := &Parser{
		reader: br,
		lin:    l,
		snap:   gamedb.NewSnapshot(l),
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	var err error
	if l.Named {
		err = p.parsePenn()
	} else {
		err = p.parse()
	}
	if err != nil {
		return nil, err
	}
	return p.snap, nil
}

// Detect identifies the lineage of a flatfile from its first lines without
// consuming input. "+V" is shared; PennMUSH files follow it with labeled
// lines while RhostMUSH files go straight to positional headers.
func Detect(br *bufio.Reader) (*lineage.Lineage, error) {
	head, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("detect lineage: %w", err)
	}
	if head[0] != '+' {
		return nil, fmt.Errorf("detect lineage: file does not start with a version header")
	}
	for _, l := range lineage.All {
		if l.Tag == head[1] && l.Tag != 'V' {
			return l, nil
		}
	}
	if head[1] != 'V' {
		return nil, fmt.Errorf("detect lineage: unknown header tag %q", head[1])
	}
	buf, _ := br.Peek(4096)
	nl := strings.IndexByte(string(buf), '\n')
	if nl < 0 {
		return nil, fmt.Errorf("detect lineage: header line too long")
	}
	next := string(buf[nl+1:])
	for _, prefix := range []string{"+FLAGS", "+POWER", "~", "dbversion", "savedtime"} {
		if strings.HasPrefix(next, prefix) {
			return lineage.P6H, nil
		}
	}
	return lineage.R7H, nil
}

func (p *Parser) has(v uint32) bool { return p.flags&v != 0 }

func (p *Parser) warn(msg string, fields ...zap.Field) {
	p.log.Warn(msg, append(fields, zap.Int("line", p.line))...)
}

func (p *Parser) parse() error {
	for {
		ch, err := p.peekByte()
		if err == io.EOF {
			return fmt.Errorf("unexpected EOF at line %d (no end-of-dump marker)", p.line)
		}
		if err != nil {
			return fmt.Errorf("read error at line %d: %w", p.line, err)
		}

		switch ch {
		case '+':
			if err := p.parseHeader(); err != nil {
				return err
			}
		case '-':
			if err := p.parseMiscTag(); err != nil {
				return err
			}
		case '!':
			if p.headers == 0 {
				return fmt.Errorf("object before version header at line %d", p.line)
			}
			if err := p.parseObject(); err != nil {
				return err
			}
		case '*':
			return p.parseEOF()
		case '\n', '\r':
			p.readLine()
			continue
		default:
			return fmt.Errorf("unexpected character '%c' at line %d", ch, p.line)
		}
	}
}

// parseHeader handles + prefixed lines: the version line, +S (size),
// +A (attr def), +N (next attr) and +F (free attr).
func (p *Parser) parseHeader() error {
	p.mustReadByte() // consume '+'
	ch, err := p.mustReadByte()
	if err != nil {
		return err
	}

	switch {
	case ch == p.lin.Tag:
		val, err := p.readUint()
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		p.snap.Version, p.snap.HeaderFlags = p.lin.SplitHeader(val)
		p.flags = p.snap.HeaderFlags
		p.headers++
		if p.has(lineage.VAtrName | lineage.VDatabase) {
			return fmt.Errorf("%s flatfile with names or attributes kept outside the file is not supported", p.lin.Name)
		}

	case ch == 'S':
		val, err := p.readInt()
		if err != nil {
			return fmt.Errorf("reading size: %w", err)
		}
		p.snap.Size = val
		p.snap.Present |= gamedb.HeaderSize

	case ch == 'N':
		val, err := p.readInt()
		if err != nil {
			return fmt.Errorf("reading next attr: %w", err)
		}
		p.snap.NextAttr = val
		p.snap.Present |= gamedb.HeaderNextAttr

	case ch == 'A':
		num, err := p.readInt()
		if err != nil {
			return fmt.Errorf("reading attr def number: %w", err)
		}
		str, err := p.readString()
		if err != nil {
			return fmt.Errorf("reading attr def string: %w", err)
		}
		// "flags:name"
		var aflags uint64
		name := str
		if idx := strings.IndexByte(str, ':'); idx > 0 {
			if f, err := strconv.ParseUint(str[:idx], 10, 32); err == nil {
				aflags = f
				name = str[idx+1:]
			}
		}
		p.snap.AddAttrDef(num, name, uint32(aflags))

	case ch == 'F':
		if _, err := p.readInt(); err != nil {
			return fmt.Errorf("reading free attr: %w", err)
		}

	case ch == 'X' || ch == 'T' || ch == 'V':
		return fmt.Errorf("header +%c at line %d does not belong to %s", ch, p.line, p.lin.Name)

	default:
		p.readLine()
	}

	return nil
}

// parseMiscTag handles - prefixed lines.
func (p *Parser) parseMiscTag() error {
	p.mustReadByte() // consume '-'
	ch, err := p.mustReadByte()
	if err != nil {
		return err
	}
	switch ch {
	case 'R':
		val, err := p.readInt()
		if err != nil {
			return fmt.Errorf("reading record players: %w", err)
		}
		p.snap.RecordPlayers = val
		p.snap.Present |= gamedb.HeaderRecordPlayers
	default:
		p.readLine()
	}
	return nil
}

// parseEOF handles the end-of-dump marker.
func (p *Parser) parseEOF() error {
	line, _ := p.readLine()
	if strings.TrimSpace(line) != EndOfDump {
		return fmt.Errorf("bad EOF marker: %q", line)
	}
	return nil
}

// --- Low-level I/O helpers ---

func (p *Parser) peekByte() (byte, error) {
	b, err := p.reader.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (p *Parser) mustReadByte() (byte, error) {
	b, err := p.reader.ReadByte()
	if b == '\n' {
		p.line++
	}
	return b, err
}

// readLine reads until end of line and returns the content (excluding newline).
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	p.line++
	return strings.TrimRight(line, "\r\n"), err
}

// readInt reads a line and parses it as an integer.
func (p *Parser) readInt() (int, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	return strconv.Atoi(line)
}

// readUint reads a line holding an unsigned word. Some servers write flag
// words as signed integers, so negative values are taken as two's
// complement.
func (p *Parser) readUint() (uint32, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	if strings.HasPrefix(line, "-") {
		v, err := strconv.ParseInt(line, 10, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(line, 10, 32)
	return uint32(v), err
}

// readLong reads a line and parses it as int64.
func (p *Parser) readLong() (int64, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return 0, err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, nil
	}
	return strconv.ParseInt(line, 10, 64)
}

// readString reads a quoted string when the file uses quoting, otherwise a
// plain line. Plain values continue across lines ending in "\r".
func (p *Parser) readString() (string, error) {
	if p.lin.Named || p.has(lineage.VQuoted) {
		ch, err := p.peekByte()
		if err != nil {
			return "", err
		}
		if ch == '"' {
			return p.readQuotedString()
		}
	}
	var buf strings.Builder
	for {
		line, err := p.reader.ReadString('\n')
		p.line++
		if strings.HasSuffix(line, "\r\n") {
			buf.WriteString(line)
			continue
		}
		buf.WriteString(strings.TrimSuffix(line, "\n"))
		if err != nil && err != io.EOF {
			return buf.String(), err
		}
		return buf.String(), nil
	}
}

// readQuotedString reads a "..." delimited string, handling escapes. Only
// lineages that escape control characters give \n, \r, \t and \e special
// meaning; elsewhere a backslash just protects the next byte.
func (p *Parser) readQuotedString() (string, error) {
	p.mustReadByte() // consume opening "

	var buf strings.Builder
	for {
		b, err := p.mustReadByte()
		if err != nil {
			return buf.String(), err
		}
		switch b {
		case '"':
			// End of string; consume the trailing newline if present
			ch, err := p.peekByte()
			if err == nil && (ch == '\n' || ch == '\r') {
				p.readLine()
			}
			return buf.String(), nil
		case '\\':
			next, err := p.mustReadByte()
			if err != nil {
				return buf.String(), err
			}
			buf.WriteByte(unescape(next, p.lin.QuoteControls))
		default:
			buf.WriteByte(b)
		}
	}
}
