package flatfile

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// parsePenn reads the labeled format: a version line, optional dbversion
// and savedtime lines, the flag and power lists, ~size, then objects made
// of "label value" lines.
func (p *Parser) parsePenn() error {
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
			if err := p.parsePennHeader(); err != nil {
				return err
			}
		case '~':
			p.mustReadByte()
			n, err := p.readInt()
			if err != nil {
				return fmt.Errorf("reading size: %w", err)
			}
			p.snap.Size = n
			p.snap.Present |= gamedb.HeaderSize
		case '!':
			if p.headers == 0 {
				return fmt.Errorf("object before version header at line %d", p.line)
			}
			if err := p.parsePennObject(); err != nil {
				return err
			}
		case '*':
			return p.parseEOF()
		case '\n', '\r':
			p.readLine()
		default:
			label, err := p.readLabel()
			if err != nil {
				return err
			}
			switch label {
			case "dbversion":
				v, err := p.readValueInt()
				if err != nil {
					return err
				}
				p.snap.DBVersion = v
				p.snap.Present |= gamedb.HeaderDBVersion
			case "savedtime":
				v, err := p.readValueString()
				if err != nil {
					return err
				}
				p.snap.SavedTime = v
				p.snap.Present |= gamedb.HeaderSavedTime
			default:
				return fmt.Errorf("unexpected label %q at line %d", label, p.line)
			}
		}
	}
}

func (p *Parser) parsePennHeader() error {
	line, err := p.readLine()
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	switch {
	case line == "+FLAGS LIST":
		n, decls, aliases, err := p.readFlagList("flag")
		if err != nil {
			return err
		}
		p.snap.FlagListCount, p.snap.FlagDecls, p.snap.FlagAliases = n, decls, aliases
	case line == "+POWER LIST":
		n, decls, aliases, err := p.readFlagList("power")
		if err != nil {
			return err
		}
		p.snap.PowerListCount, p.snap.PowerDecls, p.snap.PowerAliases = n, decls, aliases
	case len(line) > 1 && line[1] == p.lin.Tag:
		// PennMUSH prints the word signed, so high DBF bits come out negative.
		v, err := strconv.ParseInt(strings.TrimSpace(line[2:]), 10, 64)
		if err == nil && (v < math.MinInt32 || v > math.MaxUint32) {
			err = fmt.Errorf("%d out of range", v)
		}
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		p.snap.Version, p.snap.HeaderFlags = p.lin.SplitHeader(uint32(v))
		p.flags = p.snap.HeaderFlags
		p.headers++
		if !p.has(lineage.DBFLabels) {
			return fmt.Errorf("%s flatfile without labels is not supported", p.lin.Name)
		}
	default:
		return fmt.Errorf("unexpected header %q at line %d", line, p.line)
	}
	return nil
}

// readFlagList reads "<kind>count", the declarations, then the aliases.
func (p *Parser) readFlagList(kind string) (int, []*gamedb.FlagDecl, []gamedb.FlagAlias, error) {
	n, err := p.expectInt(kind + "count")
	if err != nil {
		return 0, nil, nil, err
	}
	decls := make([]*gamedb.FlagDecl, 0, n)
	for i := 0; i < n; i++ {
		d := &gamedb.FlagDecl{}
		for _, f := range []struct {
			label string
			dst   *string
		}{
			{"name", &d.Name},
			{"letter", &d.Letter},
			{"type", &d.Type},
			{"perms", &d.Perms},
			{"negate_perms", &d.NegatePerms},
		} {
			if *f.dst, err = p.expectString(f.label); err != nil {
				return 0, nil, nil, err
			}
		}
		decls = append(decls, d)
	}
	na, err := p.expectInt(kind + "aliascount")
	if err != nil {
		return 0, nil, nil, err
	}
	aliases := make([]gamedb.FlagAlias, 0, na)
	for i := 0; i < na; i++ {
		var a gamedb.FlagAlias
		if a.Name, err = p.expectString("name"); err != nil {
			return 0, nil, nil, err
		}
		if a.Alias, err = p.expectString("alias"); err != nil {
			return 0, nil, nil, err
		}
		aliases = append(aliases, a)
	}
	return n, decls, aliases, nil
}

func (p *Parser) parsePennObject() error {
	p.mustReadByte() // consume '!'
	ref, err := p.readInt()
	if err != nil {
		return fmt.Errorf("reading object dbref: %w", err)
	}
	obj := gamedb.NewObject(gamedb.DBRef(ref))

	for {
		ch, err := p.peekByte()
		if err != nil {
			return fmt.Errorf("object #%d: unexpected EOF", ref)
		}
		if ch == '!' || ch == '*' {
			break
		}
		if ch == '\n' || ch == '\r' {
			p.readLine()
			continue
		}
		label, err := p.readLabel()
		if err != nil {
			return err
		}
		if err := p.pennField(obj, label); err != nil {
			return fmt.Errorf("object #%d %s: %w", ref, label, err)
		}
	}
	return p.snap.AddObject(obj)
}

func (p *Parser) pennField(obj *gamedb.Object, label string) error {
	refs := map[string]gamedb.Field{
		"location": gamedb.FieldLocation,
		"contents": gamedb.FieldContents,
		"exits":    gamedb.FieldExits,
		"next":     gamedb.FieldNext,
		"parent":   gamedb.FieldParent,
		"owner":    gamedb.FieldOwner,
		"zone":     gamedb.FieldZone,
	}
	if f, ok := refs[label]; ok {
		r, err := p.readValueRef()
		if err != nil {
			return err
		}
		obj.SetRef(f, r)
		return nil
	}

	var err error
	switch label {
	case "name":
		obj.Name, err = p.readValueString()
		obj.Mark(gamedb.FieldName)
	case "pennies":
		obj.Pennies, err = p.readValueInt()
		obj.Mark(gamedb.FieldPennies)
	case "type":
		var v int
		v, err = p.readValueInt()
		obj.Type = uint32(v)
		obj.Mark(gamedb.FieldType)
	case "flags":
		var s string
		s, err = p.readValueString()
		obj.FlagNames = lineage.SplitNames(s)
		obj.Mark(gamedb.FieldFlags)
	case "powers":
		var s string
		s, err = p.readValueString()
		obj.PowerNames = lineage.SplitNames(s)
		obj.Mark(gamedb.FieldPowers)
	case "warnings":
		var v int
		v, err = p.readValueInt()
		obj.Warnings = uint32(v)
		obj.Mark(gamedb.FieldWarnings)
	case "created":
		obj.Created, err = p.readValueLong()
		obj.Mark(gamedb.FieldCreated)
	case "modified":
		obj.Modified, err = p.readValueLong()
		obj.Mark(gamedb.FieldModified)
	case "lockcount":
		obj.LockCount, err = p.readValueInt()
		obj.Mark(gamedb.FieldLockCount)
		if err == nil {
			err = p.readPennLocks(obj)
		}
	case "attrcount":
		obj.AttrCount, err = p.readValueInt()
		obj.Mark(gamedb.FieldAttrCount)
		if err == nil {
			err = p.readPennAttrs(obj)
		}
	default:
		p.warn("unknown object label", zap.Int("object", int(obj.DBRef)), zap.String("label", label))
		_, err = p.readValueString()
	}
	return err
}

// readPennLocks reads LockCount lock entries. Each key is parsed; one that
// does not parse keeps its text.
func (p *Parser) readPennLocks(obj *gamedb.Object) error {
	for i := 0; i < obj.LockCount; i++ {
		l := &gamedb.Lock{}
		var err error
		if l.Name, err = p.expectString("type"); err != nil {
			return err
		}
		if l.Creator, err = p.expectRef("creator"); err != nil {
			return err
		}
		flags, err := p.expectString("flags")
		if err != nil {
			return err
		}
		l.Flags = lineage.SplitNames(flags)
		if l.Derefs, err = p.expectInt("derefs"); err != nil {
			return err
		}
		if l.Key, err = p.expectString("key"); err != nil {
			return err
		}
		if n, err := lock.Parse(l.Key, p.lin.Dialect); err != nil {
			p.warn("unparseable lock", zap.Int("object", int(obj.DBRef)), zap.String("lock", l.Name),
				zap.String("text", l.Key), zap.Error(err))
		} else {
			l.Expr = n
		}
		obj.Locks = append(obj.Locks, l)
	}
	return nil
}

func (p *Parser) readPennAttrs(obj *gamedb.Object) error {
	for i := 0; i < obj.AttrCount; i++ {
		a := &gamedb.Attribute{}
		var err error
		if a.Name, err = p.expectString("name"); err != nil {
			return err
		}
		if a.Owner, err = p.expectRef("owner"); err != nil {
			return err
		}
		flags, err := p.expectString("flags")
		if err != nil {
			return err
		}
		a.FlagNames = lineage.SplitNames(flags)
		if a.Derefs, err = p.expectInt("derefs"); err != nil {
			return err
		}
		if a.Value, err = p.expectString("value"); err != nil {
			return err
		}
		obj.Attrs = append(obj.Attrs, a)
	}
	return nil
}

// --- Labeled-line helpers ---

// readLabel skips indentation and reads the word before the value.
func (p *Parser) readLabel() (string, error) {
	for {
		ch, err := p.peekByte()
		if err != nil {
			return "", fmt.Errorf("reading label at line %d: %w", p.line, err)
		}
		if ch != ' ' {
			break
		}
		p.mustReadByte()
	}
	var b strings.Builder
	for {
		ch, err := p.peekByte()
		if err != nil || ch == ' ' || ch == '\n' {
			break
		}
		p.mustReadByte()
		b.WriteByte(ch)
	}
	if ch, err := p.peekByte(); err == nil && ch == ' ' {
		p.mustReadByte()
	}
	return b.String(), nil
}

func (p *Parser) expectLabel(want string) error {
	got, err := p.readLabel()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("expected label %q, got %q at line %d", want, got, p.line)
	}
	return nil
}

func (p *Parser) readValueString() (string, error) {
	ch, err := p.peekByte()
	if err != nil {
		return "", err
	}
	if ch == '"' {
		return p.readQuotedString()
	}
	return p.readLine()
}

func (p *Parser) readValueInt() (int, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(line))
}

func (p *Parser) readValueLong() (int64, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(line), 10, 64)
}

func (p *Parser) readValueRef() (gamedb.DBRef, error) {
	line, err := p.readLine()
	if err != nil && err != io.EOF {
		return gamedb.Nothing, err
	}
	line = strings.TrimPrefix(strings.TrimSpace(line), "#")
	n, err := strconv.Atoi(line)
	if err != nil {
		return gamedb.Nothing, fmt.Errorf("bad reference %q at line %d", line, p.line)
	}
	return gamedb.DBRef(n), nil
}

func (p *Parser) expectString(label string) (string, error) {
	if err := p.expectLabel(label); err != nil {
		return "", err
	}
	return p.readValueString()
}

func (p *Parser) expectInt(label string) (int, error) {
	if err := p.expectLabel(label); err != nil {
		return 0, err
	}
	return p.readValueInt()
}

func (p *Parser) expectRef(label string) (gamedb.DBRef, error) {
	if err := p.expectLabel(label); err != nil {
		return gamedb.Nothing, err
	}
	return p.readValueRef()
}
