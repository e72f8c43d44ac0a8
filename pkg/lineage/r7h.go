package lineage

import "github.com/crystal-mush/mushconv/pkg/lock"

// R7H is RhostMUSH.
var R7H = &Lineage{
	ID:         "r7h",
	Name:       "RhostMUSH",
	Tag:        'V',
	Dialect:    lock.Classic,
	FlagWords:  3,
	PowerWords: 2,

	Flags: newFlagTable("r7h flags", 3, []uint32{TypeMask}, concat(
		classicWord0(),
		only(canon(bits(1, 0x1,
			"KEY", "ABODE", "FLOATING", "UNFINDABLE", "PARENT_OK", "LIGHT", "HAS_LISTEN", "HAS_FWDLIST",
			"ADMIN", "GUILDOBJ", "GUILDMASTER", "NO_WALLS", "NO_TEL", "NO_YELL", "NO_MODIFY", "BLIND",
			"INDESTRUCTABLE", "NO_GOBJ", "NO_MOVE", "SPOOF", "NO_OVERRIDE", "NO_USELOCK", "SIDEFX", "ZONEMASTER",
			"ZONECONTENTS", "NO_CONNECT", "ANSI", "ANSICOLOR", "NOANSINAME", "NO_STOP", "BACKSTAGE", "NOBACKSTAGE"),
			map[string]string{"ANSICOLOR": "ANSI"}),
			Kinds(KindPlayer), "GUILDMASTER", "NO_CONNECT"),
		bits(2, 0x1,
			"LOGIN", "INPROGRAM", "COMMANDS", "MARKER0", "MARKER1", "MARKER2", "MARKER3", "MARKER4",
			"MARKER5", "MARKER6", "MARKER7", "MARKER8", "MARKER9", "NOCOMMAND", "NOEXAMINE", "NOWHERE",
			"NOEXIT", "NOSHOUT", "NOPAGE", "NOKILL", "", "SPAMMONITOR", "NOLOG", "MONITOR_NONE",
			"PRIVATE", "NOSLAVE", "VPAGE", "PAGELOCK", "MAIL_LOCKDOWN", "MUXPAGE", "NOGLOBPARENT", "STAFF"),
	)),

	Powers: newFlagTable("r7h powers", 2, nil, concat(
		canon(bits(0, 0x1,
			"CHANGE_QUOTAS", "CHOWN_ME", "CHOWN_ANYWHERE", "CHOWN_PLAYERS", "CHOWN_OTHER", "WIZ_WHO", "EX_ALL", "NOFORCE",
			"SEE_QUEUE_ALL", "FREE", "GRAB_PLAYER", "JOIN_PLAYER", "LONG_FINGERS", "NO_BOOT", "BOOT", "STEAL",
			"SEE_QUEUE", "SHUTDOWN", "TEL_ANYWHERE", "TEL_ANYTHING", "PCREATE", "STAT_ANY", "FREE_WALL", "EXECSCRIPT",
			"FREE_PAGE", "HALT_QUEUE", "HALT_QUEUE_ALL", "NOKILL", "SEARCH_ANY", "SECURITY", "WHO_UNFIND", "WRITE_WEB"),
			map[string]string{
				"CHANGE_QUOTAS":  "QUOTA",
				"CHOWN_OTHER":    "CHOWN_ANYTHING",
				"WIZ_WHO":        "WIZARD_WHO",
				"EX_ALL":         "SEE_ALL",
				"FREE":           "FREE_MONEY",
				"STEAL":          "STEAL_MONEY",
				"HALT_QUEUE_ALL": "HALT",
				"NOKILL":         "UNKILLABLE",
				"SEARCH_ANY":     "SEARCH",
				"WHO_UNFIND":     "FIND_UNFINDABLE",
			}),
		bits(1, 0x1, "BUILDER", "SITEADMIN", "CMDCHECK"),
	)),

	AttrFlags: newFlagTable("r7h attribute flags", 1, nil, classicAttrFlags(
		bits(0, 0x00080000, "PINVIS", "NO_NAME", "SINGLETHREAD", "DEFAULT", "NO_ANSI", "SAFE", "USELOCK", "UNSAFE")...,
	)),

	Header: newFlagTable("r7h header", 1, []uint32{0xff}, []FlagDef{
		{Name: "V_ZONE", Mask: VZone},
		{Name: "V_LINK", Mask: VLink},
		{Name: "V_GDBM", Mask: VDatabase, Canon: "V_DATABASE"},
		{Name: "V_ATRNAME", Mask: VAtrName},
		{Name: "V_ATRKEY", Mask: VAtrKey},
		{Name: "V_PARENT", Mask: VParent},
		{Name: "V_ATRMONEY", Mask: VAtrMoney},
		{Name: "V_XFLAGS", Mask: VXFlags},
		{Name: "V_POWERS", Mask: VPowers},
		{Name: "V_3FLAGS", Mask: V3Flags},
		{Name: "V_QUOTED", Mask: VQuoted},
	}),

	VersionMask: 0xff,
	TypeMask:    TypeMask,
	Types:       t5xObjectKinds,
	Versions: []Version{
		{Number: 1, Mandatory: r7hV1},
	},

	Attrs: newAttrTable(with(classicAttrs,
		AttrDef{78, "PFAIL", 0, ""},
		AttrDef{144, "LZONEWIZ", lockFlags, "ZoneWiz"},
		AttrDef{145, "LZONETO", lockFlags, "Zone"},
		AttrDef{146, "LTWINK", lockFlags, "TwinkLock"},
		AttrDef{147, "LSPEECH", lockFlags, "Speech"},
		AttrDef{190, "LDARK", lockFlags, "Dark"},
		AttrDef{210, "PROGCMD", afInternal | afDark, ""},
		AttrDef{213, "MODIFY_TIME", afInternal, ""},
		AttrDef{214, "CREATED_TIME", afInternal, ""},
		AttrDef{218, "LASTIP", afDark | afNoCMD | afInternal | afGod, ""},
	)),
	UserAttrFloor: 256,
	AttrNameMax:   64,
	AttrNameChars: "_-.#`~!$%^&*+=|?'",

	TimeFormat:   "Mon Jan _2 15:04:05 2006",
	CreatedAttr:  "CREATED_TIME",
	ModifiedAttr: "MODIFY_TIME",
	PasswordAttr: "PASS",
}

const r7hV1 = VZone | VLink | VParent | VXFlags | VPowers | V3Flags
