package lineage

import "github.com/crystal-mush/mushconv/pkg/lock"

// Header version bits shared by the positional lineages.
const (
	VZone       = 0x00000100
	VLink       = 0x00000200
	VDatabase   = 0x00000400
	VAtrName    = 0x00000800
	VAtrKey     = 0x00001000
	VParent     = 0x00002000
	VComm       = 0x00004000
	VAtrMoney   = 0x00008000
	VXFlags     = 0x00010000
	VPowers     = 0x00020000
	V3Flags     = 0x00040000
	VQuoted     = 0x00080000
	VTQuotas    = 0x00100000
	VTimestamps = 0x00200000
	VVisual     = 0x00400000
	VCreateTime = 0x00800000
	VDBClean    = 0x80000000
)

// Type codes shared by the positional lineages.
const (
	TypeRoom    = 0
	TypeThing   = 1
	TypeExit    = 2
	TypePlayer  = 3
	TypeZone    = 4
	TypeGarbage = 5
	TypeMask    = 0x7
)

// classicWord0 is flag word 0 as laid out by every positional lineage. The
// low three bits are the type code.
func classicWord0() []FlagDef {
	return bits(0, 0x8,
		"TRANSPARENT", "WIZARD", "LINK_OK", "DARK", "JUMP_OK", "STICKY", "DESTROY_OK", "HAVEN",
		"QUIET", "HALT", "TRACE", "GOING", "MONITOR", "MYOPIC", "PUPPET", "CHOWN_OK",
		"ENTER_OK", "VISUAL", "IMMORTAL", "HAS_STARTUP", "OPAQUE", "VERBOSE", "INHERIT", "NOSPOOF",
		"ROBOT", "SAFE", "ROYALTY", "AUDIBLE", "TERSE")
}

func markers(word int, first uint32, prefix string) []FlagDef {
	names := make([]string, 10)
	for i := range names {
		names[i] = prefix + string(rune('0'+i))
	}
	return bits(word, first, names...)
}

var t5xObjectKinds = []TypeDef{
	{TypeRoom, KindRoom},
	{TypeThing, KindThing},
	{TypeExit, KindExit},
	{TypePlayer, KindPlayer},
	{TypeGarbage, KindGarbage},
}

// T5X is TinyMUX 2.x, the hub lineage.
var T5X = &Lineage{
	ID:         "t5x",
	Name:       "TinyMUX 2.x",
	Tag:        'X',
	Dialect:    lock.Classic,
	FlagWords:  3,
	PowerWords: 2,

	Flags: newFlagTable("t5x flags", 3, []uint32{TypeMask}, concat(
		only(classicWord0(), Kinds(KindPlayer), "ROBOT"),
		only(bits(1, 0x1,
			"KEY", "ABODE", "FLOATING", "UNFINDABLE", "PARENT_OK", "LIGHT", "HAS_LISTEN", "HAS_FWDLIST",
			"AUDITORIUM", "ANSI", "HEAD", "FIXED", "UNINSPECTED", "NO_COMMAND", "KEEPALIVE", "NOBLEED",
			"STAFF", "HAS_DAILY", "GAGGED", "OPEN_OK", "", "", "", "",
			"VACATION", "PLAYER_MAILS", "HTML", "BLIND", "SUSPECT", "ASCII", "CONNECTED", "SLAVE"),
			Kinds(KindPlayer), "CONNECTED", "SLAVE", "VACATION", "PLAYER_MAILS", "SUSPECT"),
		bits(2, 0x1, "SITEMON", "CMDCHECK"),
		markers(2, 0x00400000, "MARK_"),
	)),

	Powers: newFlagTable("t5x powers", 2, nil, concat(
		bits(0, 0x1,
			"QUOTA", "CHOWN_ANYTHING", "ANNOUNCE", "BOOT", "HALT", "CONTROL_ALL", "WIZARD_WHO", "SEE_ALL",
			"FIND_UNFINDABLE", "FREE_MONEY", "FREE_QUOTA", "HIDE", "IDLE", "SEARCH", "LONG_FINGERS", "PROG",
			"SITEADMIN", "OPENURL", "", "COMM_ALL", "SEE_QUEUE", "SEE_HIDDEN", "MONITOR", "POLL",
			"NO_DESTROY", "GUEST", "PASS_LOCKS", "STAT_ANY", "STEAL_MONEY", "TEL_ANYWHERE", "TEL_ANYTHING", "UNKILLABLE"),
		bits(1, 0x1, "BUILDER"),
	)),

	AttrFlags: newFlagTable("t5x attribute flags", 1, nil, classicAttrFlags(
		FlagDef{Name: "NO_NAME", Mask: 0x00080000},
		FlagDef{Name: "NO_DECOMP", Mask: 0x00100000},
		FlagDef{Name: "TRACE", Mask: 0x00200000},
	)),

	Header: newFlagTable("t5x header", 1, []uint32{0xff}, concat(
		[]FlagDef{
			{Name: "V_ZONE", Mask: VZone},
			{Name: "V_LINK", Mask: VLink},
			{Name: "V_DATABASE", Mask: VDatabase},
			{Name: "V_ATRNAME", Mask: VAtrName},
			{Name: "V_ATRKEY", Mask: VAtrKey},
			{Name: "V_PARENT", Mask: VParent},
			{Name: "V_ATRMONEY", Mask: VAtrMoney},
			{Name: "V_XFLAGS", Mask: VXFlags},
			{Name: "V_POWERS", Mask: VPowers},
			{Name: "V_3FLAGS", Mask: V3Flags},
			{Name: "V_QUOTED", Mask: VQuoted},
		},
	)),

	VersionMask: 0xff,
	TypeMask:    TypeMask,
	Types:       t5xObjectKinds,
	Versions: []Version{
		{Number: 2, Mandatory: t5xV2},
		{Number: 3, Mandatory: t5xV2 | VAtrKey},
		{Number: 4, Mandatory: t5xV2 | VAtrKey, UTF8: true},
	},

	Attrs: newAttrTable(with(classicAttrs,
		AttrDef{78, "PFAIL", 0, ""},
		AttrDef{83, "PRIVS", afInternal, ""},
		AttrDef{198, "MAILCC", afInternal, ""},
		AttrDef{199, "MAILBCC", afInternal, ""},
		AttrDef{200, "LASTPAGE", afInternal, ""},
		AttrDef{201, "MAIL", afInternal, ""},
		AttrDef{202, "AMAIL", 0, ""},
		AttrDef{203, "SIGNATURE", 0, ""},
		AttrDef{204, "DAILY", 0, ""},
		AttrDef{205, "MAILTO", afInternal, ""},
		AttrDef{206, "MAILMSG", afInternal, ""},
		AttrDef{207, "MAILSUB", afInternal, ""},
		AttrDef{208, "MAILCURF", afInternal, ""},
		AttrDef{209, "PROGCMD", afInternal | afDark, ""},
		AttrDef{210, "MAILFLAGS", afInternal, ""},
		AttrDef{211, "DESTROYER", afInternal, ""},
		AttrDef{212, "NEWOBJS", afInternal, ""},
		AttrDef{213, "MODIFIED", afInternal | afVisual, ""},
		AttrDef{214, "CREATED", afInternal | afVisual, ""},
		AttrDef{215, "HTDESC", 0, ""},
		AttrDef{216, "CONFORMAT", 0, ""},
		AttrDef{217, "EXITFORMAT", 0, ""},
		AttrDef{218, "LASTIP", afDark | afNoCMD | afInternal | afGod, ""},
		AttrDef{219, "NAMEFORMAT", 0, ""},
		AttrDef{220, "SPEECHMOD", 0, ""},
		AttrDef{221, "REASON", afInternal, ""},
		AttrDef{222, "LSPEECH", lockFlags, "Speech"},
		AttrDef{223, "LMAIL", lockFlags, "Mail"},
	)),
	UserAttrFloor: 256,
	AttrNameMax:   64,
	AttrNameChars: "_-.#`~!$%^&*+=|?'",

	TimeFormat:   "Mon Jan _2 15:04:05 2006",
	CreatedAttr:  "CREATED",
	ModifiedAttr: "MODIFIED",
	PasswordAttr: "PASS",

	QuoteControls: true,
}

const t5xV2 = VLink | VParent | VXFlags | VZone | VPowers | V3Flags | VQuoted
