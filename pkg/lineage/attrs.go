package lineage

import "strings"

// AttrDef is a built-in attribute.
type AttrDef struct {
	Number int
	Name   string
	Flags  uint32 // default attribute flags, native bits
	Lock   string // named-lock equivalent when the attribute holds a lock
}

// AttrTable indexes built-in attributes by number, name and lock name.
type AttrTable struct {
	defs   []AttrDef
	byNum  map[int]int
	byName map[string]int
	byLock map[string]int
}

func newAttrTable(defs []AttrDef) *AttrTable {
	t := &AttrTable{
		defs:   defs,
		byNum:  make(map[int]int, len(defs)),
		byName: make(map[string]int, len(defs)),
		byLock: make(map[string]int),
	}
	for i, d := range defs {
		t.byNum[d.Number] = i
		t.byName[strings.ToUpper(d.Name)] = i
		if d.Lock != "" {
			t.byLock[strings.ToUpper(d.Lock)] = i
		}
	}
	return t
}

// All returns the built-ins in table order.
func (t *AttrTable) All() []AttrDef { return t.defs }

// ByNumber looks up a built-in by number.
func (t *AttrTable) ByNumber(n int) (AttrDef, bool) {
	i, ok := t.byNum[n]
	if !ok {
		return AttrDef{}, false
	}
	return t.defs[i], true
}

// ByName looks up a built-in by name, ignoring case.
func (t *AttrTable) ByName(name string) (AttrDef, bool) {
	i, ok := t.byName[strings.ToUpper(name)]
	if !ok {
		return AttrDef{}, false
	}
	return t.defs[i], true
}

// ByLock finds the lock-bearing attribute for a named lock, ignoring case.
func (t *AttrTable) ByLock(lockName string) (AttrDef, bool) {
	i, ok := t.byLock[strings.ToUpper(lockName)]
	if !ok {
		return AttrDef{}, false
	}
	return t.defs[i], true
}

// Locks returns every lock-bearing built-in.
func (t *AttrTable) Locks() []AttrDef {
	var out []AttrDef
	for _, d := range t.defs {
		if d.Lock != "" {
			out = append(out, d)
		}
	}
	return out
}

// with returns a copy of base with the given entries appended, replacing any
// base entry that shares a number.
func with(base []AttrDef, extra ...AttrDef) []AttrDef {
	drop := make(map[int]bool, len(extra))
	for _, e := range extra {
		drop[e.Number] = true
	}
	out := make([]AttrDef, 0, len(base)+len(extra))
	for _, b := range base {
		if !drop[b.Number] {
			out = append(out, b)
		}
	}
	return append(out, extra...)
}

// without returns base minus the given numbers.
func without(base []AttrDef, nums ...int) []AttrDef {
	drop := make(map[int]bool, len(nums))
	for _, n := range nums {
		drop[n] = true
	}
	out := make([]AttrDef, 0, len(base))
	for _, b := range base {
		if !drop[b.Number] {
			out = append(out, b)
		}
	}
	return out
}

// Attribute flag bits shared by the positional lineages.
const (
	afODark    = 0x00000001
	afDark     = 0x00000002
	afWizard   = 0x00000004
	afMDark    = 0x00000008
	afInternal = 0x00000010
	afNoCMD    = 0x00000020
	afLock     = 0x00000040
	afDeleted  = 0x00000080
	afNoProg   = 0x00000100
	afGod      = 0x00000200
	afIsLock   = 0x00000400
	afVisual   = 0x00000800
	afPrivate  = 0x00001000
	afHTML     = 0x00002000
	afNoParse  = 0x00004000
	afRegexp   = 0x00008000
	afNoClone  = 0x00010000
	afConst    = 0x00020000
	afCase     = 0x00040000
)

const lockFlags = afInternal | afIsLock

// classicAttrs are the built-ins numbered identically in every positional
// lineage.
var classicAttrs = []AttrDef{
	{1, "OSUCC", 0, ""},
	{2, "OFAIL", 0, ""},
	{3, "FAIL", 0, ""},
	{4, "SUCC", 0, ""},
	{5, "PASS", afDark | afInternal, ""},
	{6, "DESC", 0, ""},
	{7, "SEX", 0, ""},
	{8, "ODROP", 0, ""},
	{9, "DROP", 0, ""},
	{10, "OKILL", 0, ""},
	{11, "KILL", 0, ""},
	{12, "ASUCC", 0, ""},
	{13, "AFAIL", 0, ""},
	{14, "ADROP", 0, ""},
	{15, "AKILL", 0, ""},
	{16, "AUSE", 0, ""},
	{17, "CHARGES", 0, ""},
	{18, "RUNOUT", 0, ""},
	{19, "STARTUP", 0, ""},
	{20, "ACLONE", 0, ""},
	{21, "APAY", 0, ""},
	{22, "OPAY", 0, ""},
	{23, "PAY", 0, ""},
	{24, "COST", 0, ""},
	{25, "MONEY", afInternal, ""},
	{26, "LISTEN", 0, ""},
	{27, "AAHEAR", 0, ""},
	{28, "AMHEAR", 0, ""},
	{29, "AHEAR", 0, ""},
	{30, "LAST", afInternal, ""},
	{31, "QUEUEMAX", 0, ""},
	{32, "IDESC", 0, ""},
	{33, "ENTER", 0, ""},
	{34, "OXENTER", 0, ""},
	{35, "AENTER", 0, ""},
	{36, "ADESC", 0, ""},
	{37, "ODESC", 0, ""},
	{38, "RQUOTA", afInternal | afGod, ""},
	{39, "ACONNECT", 0, ""},
	{40, "ADISCONNECT", 0, ""},
	{41, "ALLOWANCE", afInternal | afGod, ""},
	{42, "LOCK", lockFlags, BasicLock},
	{43, "NAME", afInternal, ""},
	{44, "COMMENT", 0, ""},
	{45, "USE", 0, ""},
	{46, "OUSE", 0, ""},
	{47, "SEMAPHORE", afInternal, ""},
	{48, "TIMEOUT", afInternal, ""},
	{49, "QUOTA", afInternal | afGod, ""},
	{50, "LEAVE", 0, ""},
	{51, "OLEAVE", 0, ""},
	{52, "ALEAVE", 0, ""},
	{53, "OENTER", 0, ""},
	{54, "OXLEAVE", 0, ""},
	{55, "MOVE", 0, ""},
	{56, "OMOVE", 0, ""},
	{57, "AMOVE", 0, ""},
	{58, "ALIAS", 0, ""},
	{59, "LENTER", lockFlags, "Enter"},
	{60, "LLEAVE", lockFlags, "Leave"},
	{61, "LPAGE", lockFlags, "Page"},
	{62, "LUSE", lockFlags, "Use"},
	{63, "LGIVE", lockFlags, "Give"},
	{64, "EALIAS", 0, ""},
	{65, "LALIAS", 0, ""},
	{66, "EFAIL", 0, ""},
	{67, "OEFAIL", 0, ""},
	{68, "AEFAIL", 0, ""},
	{69, "LFAIL", 0, ""},
	{70, "OLFAIL", 0, ""},
	{71, "ALFAIL", 0, ""},
	{72, "REJECT", 0, ""},
	{73, "AWAY", 0, ""},
	{74, "IDLE", 0, ""},
	{75, "UFAIL", 0, ""},
	{76, "OUFAIL", 0, ""},
	{77, "AUFAIL", 0, ""},
	{79, "TPORT", 0, ""},
	{80, "OTPORT", 0, ""},
	{81, "OXTPORT", 0, ""},
	{82, "ATPORT", 0, ""},
	{84, "LOGINDATA", afDark | afNoCMD | afInternal, ""},
	{85, "LTPORT", lockFlags, "Teleport"},
	{86, "LDROP", lockFlags, "Drop"},
	{87, "LRECEIVE", lockFlags, "Receive"},
	{88, "LASTSITE", afDark | afNoCMD | afInternal | afGod, ""},
	{89, "INPREFIX", 0, ""},
	{90, "PREFIX", 0, ""},
	{91, "INFILTER", 0, ""},
	{92, "FILTER", 0, ""},
	{93, "LLINK", lockFlags, "Link"},
	{94, "LTELOUT", lockFlags, "TeleportOut"},
	{95, "FORWARDLIST", 0, ""},
	{96, "MAILFOLDERS", afInternal, ""},
	{97, "LUSER", lockFlags, "UserLock"},
	{98, "LPARENT", lockFlags, "Parent"},
	{99, "LCONTROL", lockFlags, "Control"},
	{100, "VA", 0, ""}, {101, "VB", 0, ""}, {102, "VC", 0, ""}, {103, "VD", 0, ""},
	{104, "VE", 0, ""}, {105, "VF", 0, ""}, {106, "VG", 0, ""}, {107, "VH", 0, ""},
	{108, "VI", 0, ""}, {109, "VJ", 0, ""}, {110, "VK", 0, ""}, {111, "VL", 0, ""},
	{112, "VM", 0, ""}, {113, "VN", 0, ""}, {114, "VO", 0, ""}, {115, "VP", 0, ""},
	{116, "VQ", 0, ""}, {117, "VR", 0, ""}, {118, "VS", 0, ""}, {119, "VT", 0, ""},
	{120, "VU", 0, ""}, {121, "VV", 0, ""}, {122, "VW", 0, ""}, {123, "VX", 0, ""},
	{124, "VY", 0, ""}, {125, "VZ", 0, ""},
	{129, "GFAIL", 0, ""},
	{130, "OGFAIL", 0, ""},
	{131, "AGFAIL", 0, ""},
	{132, "RFAIL", 0, ""},
	{133, "ORFAIL", 0, ""},
	{134, "ARFAIL", 0, ""},
	{135, "DFAIL", 0, ""},
	{136, "ODFAIL", 0, ""},
	{137, "ADFAIL", 0, ""},
	{138, "TFAIL", 0, ""},
	{139, "OTFAIL", 0, ""},
	{140, "ATFAIL", 0, ""},
	{141, "TOFAIL", 0, ""},
	{142, "OTOFAIL", 0, ""},
	{143, "ATOFAIL", 0, ""},
}

// classicAttrFlags is the attribute-flag catalog shared by the positional
// lineages. Canonical names follow the hub spelling.
func classicAttrFlags(extra ...FlagDef) []FlagDef {
	return concat(bits(0, afODark,
		"ODARK", "DARK", "WIZARD", "MDARK", "INTERNAL", "NO_COMMAND", "LOCK", "DELETED",
		"NO_PROG", "GOD", "IS_LOCK", "VISUAL", "PRIVATE", "HTML", "NO_PARSE", "REGEXP",
		"NO_CLONE", "CONST", "CASE"), extra)
}
