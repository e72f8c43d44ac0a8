package flatfile

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/crystal-mush/mushconv/pkg/gamedb"
	"github.com/crystal-mush/mushconv/pkg/lineage"
	"github.com/crystal-mush/mushconv/pkg/lock"
)

// parseObject reads a single positional object entry starting with !<dbref>.
// Which fields are present is governed by the version header flags.
func (p *Parser) parseObject() error {
	p.mustReadByte() // consume '!'
	ref, err := p.readInt()
	if err != nil {
		return fmt.Errorf("reading object dbref: %w", err)
	}
	obj := gamedb.NewObject(gamedb.DBRef(ref))

	readRef := func(f gamedb.Field) error {
		v, err := p.readInt()
		if err != nil {
			return fmt.Errorf("object #%d %s: %w", ref, f, err)
		}
		obj.SetRef(f, gamedb.DBRef(v))
		return nil
	}

	name, err := p.readString()
	if err != nil {
		return fmt.Errorf("object #%d name: %w", ref, err)
	}
	obj.Name = name
	obj.Mark(gamedb.FieldName)

	if err := readRef(gamedb.FieldLocation); err != nil {
		return err
	}
	if p.has(lineage.VZone) {
		if err := readRef(gamedb.FieldZone); err != nil {
			return err
		}
	}
	if err := readRef(gamedb.FieldContents); err != nil {
		return err
	}
	if err := readRef(gamedb.FieldExits); err != nil {
		return err
	}
	if p.has(lineage.VLink) {
		if err := readRef(gamedb.FieldLink); err != nil {
			return err
		}
	}
	if err := readRef(gamedb.FieldNext); err != nil {
		return err
	}

	// The default lock sits in the header unless it moved to an attribute.
	if !p.has(lineage.VAtrKey) {
		key, err := p.readLine()
		if err != nil {
			return fmt.Errorf("object #%d lock: %w", ref, err)
		}
		obj.Mark(gamedb.FieldLock)
		obj.LockText = key
		n, err := lock.ParseLegacy(key)
		if err != nil {
			p.warn("unparseable lock key", zap.Int("object", ref), zap.String("key", key), zap.Error(err))
		} else {
			obj.Lock = p.resolveAttrNumbers(n)
		}
	}

	if err := readRef(gamedb.FieldOwner); err != nil {
		return err
	}
	if p.has(lineage.VParent) {
		if err := readRef(gamedb.FieldParent); err != nil {
			return err
		}
	}
	if !p.has(lineage.VAtrMoney) {
		pen, err := p.readInt()
		if err != nil {
			return fmt.Errorf("object #%d pennies: %w", ref, err)
		}
		obj.Pennies = pen
		obj.Mark(gamedb.FieldPennies)
	}

	words := 1
	if p.has(lineage.VXFlags) {
		words = 2
	}
	if p.has(lineage.V3Flags) {
		words = 3
	}
	for i := 0; i < words; i++ {
		v, err := p.readUint()
		if err != nil {
			return fmt.Errorf("object #%d flags%d: %w", ref, i+1, err)
		}
		obj.Flags[i] = v
	}
	obj.Mark(gamedb.FieldFlags | gamedb.FieldType)

	if p.has(lineage.VPowers) {
		for i := 0; i < 2; i++ {
			v, err := p.readUint()
			if err != nil {
				return fmt.Errorf("object #%d powers%d: %w", ref, i+1, err)
			}
			obj.Powers[i] = v
		}
		obj.Mark(gamedb.FieldPowers)
	}

	if p.has(lineage.VTimestamps) {
		acc, err := p.readLong()
		if err != nil {
			return fmt.Errorf("object #%d access time: %w", ref, err)
		}
		mod, err := p.readLong()
		if err != nil {
			return fmt.Errorf("object #%d mod time: %w", ref, err)
		}
		obj.Accessed, obj.Modified = acc, mod
		obj.Mark(gamedb.FieldAccessed | gamedb.FieldModified)
	}
	if p.has(lineage.VCreateTime) {
		cr, err := p.readLong()
		if err != nil {
			return fmt.Errorf("object #%d create time: %w", ref, err)
		}
		obj.Created = cr
		obj.Mark(gamedb.FieldCreated)
	}

	attrs, err := p.readAttrList()
	if err != nil {
		return fmt.Errorf("object #%d attrs: %w", ref, err)
	}
	obj.Attrs = attrs
	p.finishAttrs(obj)

	return p.snap.AddObject(obj)
}

// readAttrList reads the > ... < delimited attribute section.
func (p *Parser) readAttrList() ([]*gamedb.Attribute, error) {
	var attrs []*gamedb.Attribute

	for {
		ch, err := p.peekByte()
		if err != nil {
			return attrs, fmt.Errorf("unexpected EOF in attr list")
		}

		switch ch {
		case '>':
			p.mustReadByte() // consume '>'
			num, err := p.readInt()
			if err != nil {
				return attrs, fmt.Errorf("reading attr number: %w", err)
			}
			val, err := p.readString()
			if err != nil {
				return attrs, fmt.Errorf("reading attr value: %w", err)
			}
			if num > 0 {
				attrs = append(attrs, &gamedb.Attribute{
					Number:  num,
					Value:   val,
					Encoded: true,
				})
			}
		case '<':
			p.mustReadByte() // consume '<'
			p.readLine()     // consume trailing newline
			return attrs, nil
		case '\n', '\r':
			p.readLine()
			continue
		default:
			// Bad character, try to skip the value
			p.mustReadByte()
			p.readString()
		}
	}
}

// finishAttrs unpacks owner and flags, names each attribute and parses the
// lock-bearing ones. A lock that does not parse keeps its text.
func (p *Parser) finishAttrs(obj *gamedb.Object) {
	for _, a := range obj.Attrs {
		a.Decode(obj.Owner)
		a.Name = p.snap.AttrName(a.Number)
		if a.Name == "" {
			p.warn("attribute number has no name", zap.Int("object", int(obj.DBRef)), zap.Int("attr", a.Number))
			a.Name = "ATTR" + strconv.Itoa(a.Number)
		}
		if !p.lin.IsLockAttr(a.Number) {
			continue
		}
		a.IsLock = true
		if a.Value == "" {
			continue
		}
		n, err := lock.Parse(a.Value, p.lin.Dialect)
		if err != nil {
			p.warn("unparseable lock", zap.Int("object", int(obj.DBRef)), zap.String("attr", a.Name),
				zap.String("text", a.Value), zap.Error(err))
			continue
		}
		a.Lock = n
	}
}

// resolveAttrNumbers rewrites header-key attribute terms stored by number
// to the attribute's name.
func (p *Parser) resolveAttrNumbers(n *lock.Node) *lock.Node {
	n.Walk(func(x *lock.Node) bool {
		if x.Kind != lock.KindAttr && x.Kind != lock.KindEval {
			return true
		}
		if x.Left == nil || x.Left.Kind != lock.KindText {
			return false
		}
		if num, err := strconv.Atoi(x.Left.Text); err == nil {
			if name := p.snap.AttrName(num); name != "" {
				x.Left.Text = name
			}
		}
		return false
	})
	return n
}
