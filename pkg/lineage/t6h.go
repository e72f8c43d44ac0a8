package lineage

import "github.com/crystal-mush/mushconv/pkg/lock"

// T6H is TinyMUSH 3.x.
var T6H = &Lineage{
	ID:         "t6h",
	Name:       "TinyMUSH 3.x",
	Tag:        'T',
	Dialect:    lock.Classic,
	FlagWords:  3,
	PowerWords: 2,

	Flags: newFlagTable("t6h flags", 3, []uint32{TypeMask}, concat(
		classicWord0(),
		canon(only(bits(1, 0x1,
			"KEY", "ABODE", "FLOATING", "UNFINDABLE", "PARENT_OK", "LIGHT", "HAS_LISTEN", "HAS_FWDLIST",
			"AUDITORIUM", "CONNECTED", "", "SLAVE", "HTML", "ANSI", "HAD_STARTUP", "BLIND",
			"CONTROL_OK", "", "", "WATCHER", "", "HAS_COMMANDS", "STOP_MATCH", "BOUNCE",
			"ZONE_PARENT", "NO_BLEED", "HAS_DAILY", "GAGGED", "STAFF", "HAS_DARKLOCK", "FIXED"),
			Kinds(KindPlayer), "CONNECTED", "SLAVE"),
			map[string]string{"NO_BLEED": "NOBLEED"}),
		canon(markers(2, 0x00400000, "MARKER"), map[string]string{
			"MARKER0": "MARK_0", "MARKER1": "MARK_1", "MARKER2": "MARK_2", "MARKER3": "MARK_3",
			"MARKER4": "MARK_4", "MARKER5": "MARK_5", "MARKER6": "MARK_6", "MARKER7": "MARK_7",
			"MARKER8": "MARK_8", "MARKER9": "MARK_9",
		}),
		bits(2, 0x1, "VACATION", "REDIR_OK", "HAS_REDIRECT", "ORPHAN", "HAS_PROPDIR", "FREE"),
	)),

	Powers: newFlagTable("t6h powers", 2, nil, concat(
		canon(bits(0, 0x1,
			"CHANGE_QUOTAS", "CHOWN_ANYTHING", "ANNOUNCE", "BOOT", "HALT", "CONTROL_ALL", "EXPANDED_WHO", "SEE_ALL",
			"FIND_UNFINDABLE", "FREE_MONEY", "FREE_QUOTA", "HIDE", "IDLE", "SEARCH", "LONG_FINGERS", "PROGRAM",
			"MDARK_ATTR", "WIZ_ATTR", "", "COMM_ALL", "SEE_QUEUE", "SEE_HIDDEN", "WATCH_LOGINS", "POLL",
			"NO_DESTROY", "GUEST", "PASS_LOCKS", "STAT_ANY", "STEAL_MONEY", "TEL_ANYWHERE", "TEL_ANYTHING", "UNKILLABLE"),
			map[string]string{
				"CHANGE_QUOTAS": "QUOTA",
				"EXPANDED_WHO":  "WIZARD_WHO",
				"PROGRAM":       "PROG",
				"WATCH_LOGINS":  "MONITOR",
			}),
		bits(1, 0x1, "BUILDER", "LINK_VARIABLE", "LINK_TO_ANYTHING", "OPEN_ANYWHERE", "USE_SQL", "LINK_ANY_HOME", "CLOAK"),
	)),

	AttrFlags: newFlagTable("t6h attribute flags", 1, nil, classicAttrFlags(
		bits(0, 0x00080000, "STRUCTURE", "DIRTY", "DEFAULT", "NO_NAME", "RMATCH", "NOW", "TRACE", "PROPAGATE")...,
	)),

	Header: newFlagTable("t6h header", 1, []uint32{0xff}, []FlagDef{
		{Name: "V_ZONE", Mask: VZone},
		{Name: "V_LINK", Mask: VLink},
		{Name: "V_GDBM", Mask: VDatabase, Canon: "V_DATABASE"},
		{Name: "V_ATRNAME", Mask: VAtrName},
		{Name: "V_ATRKEY", Mask: VAtrKey},
		{Name: "V_PARENT", Mask: VParent},
		{Name: "V_COMM", Mask: VComm},
		{Name: "V_ATRMONEY", Mask: VAtrMoney},
		{Name: "V_XFLAGS", Mask: VXFlags},
		{Name: "V_POWERS", Mask: VPowers},
		{Name: "V_3FLAGS", Mask: V3Flags},
		{Name: "V_QUOTED", Mask: VQuoted},
		{Name: "V_TQUOTAS", Mask: VTQuotas},
		{Name: "V_TIMESTAMPS", Mask: VTimestamps},
		{Name: "V_VISUALATTRS", Mask: VVisual},
		{Name: "V_CREATETIME", Mask: VCreateTime},
		{Name: "V_DBCLEAN", Mask: VDBClean},
	}),

	VersionMask: 0xff,
	TypeMask:    TypeMask,
	Types: []TypeDef{
		{TypeRoom, KindRoom},
		{TypeThing, KindThing},
		{TypeExit, KindExit},
		{TypePlayer, KindPlayer},
		{TypeZone, KindZone},
		{TypeGarbage, KindGarbage},
	},
	Versions: []Version{
		{Number: 1, Mandatory: t6hV1},
	},

	Attrs: newAttrTable(with(classicAttrs,
		AttrDef{144, "LOPEN", lockFlags, "Open"},
		AttrDef{202, "AMAIL", 0, ""},
		AttrDef{204, "DAILYATTRIB", 0, ""},
		AttrDef{210, "PROGCMD", afInternal | afDark, ""},
		AttrDef{214, "LCON_FMT", 0, ""},
		AttrDef{215, "LEXITS_FMT", 0, ""},
		AttrDef{218, "LASTIP", afDark | afNoCMD | afInternal | afGod, ""},
		AttrDef{221, "HTDESC", 0, ""},
		AttrDef{222, "NAMEFORMAT", 0, ""},
		AttrDef{231, "PROPDIR", 0, ""},
	)),
	UserAttrFloor: 256,
	AttrNameMax:   64,
	AttrNameChars: "_-.#`~!$%^&*+=|?'",

	PasswordAttr: "PASS",
}

const t6hV1 = VZone | VLink | VAtrKey | VParent | VXFlags | VPowers | V3Flags | VQuoted
