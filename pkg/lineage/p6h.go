package lineage

import "github.com/crystal-mush/mushconv/pkg/lock"

// PennMUSH database flags, as placed in the header word. The low byte holds
// the format version.
const (
	DBFNoChatSystem  = 0x00000001 << 8
	DBFWarnings      = 0x00000002 << 8
	DBFCreationTimes = 0x00000004 << 8
	DBFNoPowers      = 0x00000008 << 8
	DBFNewLocks      = 0x00000010 << 8
	DBFNewStrings    = 0x00000020 << 8
	DBFTypeGarbage   = 0x00000040 << 8
	DBFSplitImmortal = 0x00000080 << 8
	DBFNoTemple      = 0x00000100 << 8
	DBFLessGarbage   = 0x00000200 << 8
	DBFAFVisual      = 0x00000400 << 8
	DBFValueIsCost   = 0x00000800 << 8
	DBFLinkAnywhere  = 0x00001000 << 8
	DBFNoStartupFlag = 0x00002000 << 8
	DBFPanic         = 0x00004000 << 8
	DBFAFNoDump      = 0x00008000 << 8
	DBFSpiffyLocks   = 0x00010000 << 8
	DBFNewFlags      = 0x00020000 << 8
	DBFNewPowers     = 0x00040000 << 8
	DBFPowersLogged  = 0x00080000 << 8
	DBFLabels        = 0x00100000 << 8
	DBFSpiffyAFAnsi  = 0x00200000 << 8
	DBFHearConnect   = 0x00400000 << 8
	DBFNewVersions   = 0x00800000 << 8
)

// PennMUSH type codes.
const (
	PennRoom    = 0x01
	PennThing   = 0x02
	PennExit    = 0x04
	PennPlayer  = 0x08
	PennGarbage = 0x10
)

// P6HUpgraded are the header bits the upgrade pass adds.
const P6HUpgraded = DBFLabels | DBFNewVersions | DBFSpiffyAFAnsi | DBFHearConnect

const p6hBase = DBFNoChatSystem | DBFWarnings | DBFCreationTimes | DBFNewLocks | DBFNewStrings |
	DBFTypeGarbage | DBFSplitImmortal | DBFNoTemple | DBFLessGarbage | DBFAFVisual | DBFValueIsCost |
	DBFLinkAnywhere | DBFNoStartupFlag | DBFAFNoDump | DBFSpiffyLocks | DBFNewFlags | DBFNewPowers |
	DBFPowersLogged

// PennLocks are the lock types PennMUSH knows by name. Anything else must be
// a user lock spelled "User:<name>".
var PennLocks = []string{
	"Basic", "Enter", "Teleport", "Use", "Page", "Zone", "Parent", "Link", "Open", "Examine",
	"Chzone", "Forward", "Control", "Dropto", "Destroy", "Interact", "MailForward", "Take",
	"Drop", "DropIn", "Give", "From", "Pay", "Receive", "Mail", "Follow", "Leave", "Speech",
	"Listen", "Command", "ChownLock", "Filter", "InFilter",
}

// P6H is PennMUSH 1.8.
var P6H = &Lineage{
	ID:      "p6h",
	Name:    "PennMUSH 1.8",
	Tag:     'V',
	Named:   true,
	Dialect: lock.Penn,

	Flags: newFlagTable("p6h flags", 0, nil, named(
		"ABODE", "ANSI", "AUDIBLE", "CHOWN_OK", "COLOR", "CONNECTED", "DARK", "DEBUG=TRACE",
		"DESTROY_OK", "ENTER_OK", "FIXED", "FLOATING", "GAGGED", "GOING", "HALT", "HAVEN",
		"HEAD", "HEAR_CONNECT", "HEAVY", "JUMP_OK", "KEEPALIVE", "LIGHT", "LINK_OK", "LISTEN_PARENT",
		"LOUD", "MISTRUST", "MONITOR", "MYOPIC", "NO_COMMAND", "NO_LEAVE", "NO_TEL", "NO_WARN",
		"NOSPOOF", "OPAQUE", "ORPHAN", "PUPPET", "QUIET", "ROYALTY", "SAFE", "SHARED",
		"STICKY", "SUSPECT", "TERSE", "TRACK_MONEY", "TRANSPARENT", "TRUST=INHERIT", "UNFINDABLE", "UNINSPECTED",
		"VACATION", "VERBOSE", "VISUAL", "WIZARD", "XTERM256", "ZONE",
	)),

	Powers: newFlagTable("p6h powers", 0, nil, named(
		"Announce", "Boot", "Builder", "Can_nspemit", "Can_spoof", "Chat_Privs", "Debit", "Functions",
		"Guest", "Halt", "Hide", "Hook", "Idle", "Link_Anywhere", "Login", "Long_Fingers",
		"Many_Attribs", "No_Pay=FREE_MONEY", "No_Quota=FREE_QUOTA", "Open_Anywhere", "Pemit_All", "Player_Create", "Poll", "Pueblo_Send",
		"Queue", "Quotas=QUOTA", "Search", "See_All", "See_Queue", "Sql_Ok", "Tport_Anything=TEL_ANYTHING", "Tport_Anywhere=TEL_ANYWHERE",
		"Unkillable",
	)),

	AttrFlags: newFlagTable("p6h attribute flags", 0, nil, named(
		"no_command=NO_COMMAND", "no_inherit=PRIVATE", "no_clone=NO_CLONE", "wizard=WIZARD",
		"mortal_dark=MDARK", "regexp=REGEXP", "case=CASE", "safe=CONST", "visual=VISUAL",
		"locked=LOCK", "debug=TRACE", "noname=NO_NAME", "internal=INTERNAL", "nospace", "prefixmatch",
		"veiled", "public", "nearby", "aahear", "amhear", "quiet",
	)),

	LockFlags: newFlagTable("p6h lock flags", 0, nil, named(
		"visual=VISUAL", "no_inherit=PRIVATE", "no_clone=NO_CLONE", "wizard=WIZARD", "locked=LOCK",
	)),

	Header: newFlagTable("p6h header", 1, []uint32{0xff}, []FlagDef{
		{Name: "NO_CHAT_SYSTEM", Mask: DBFNoChatSystem},
		{Name: "WARNINGS", Mask: DBFWarnings},
		{Name: "CREATION_TIMES", Mask: DBFCreationTimes},
		{Name: "NO_POWERS", Mask: DBFNoPowers},
		{Name: "NEW_LOCKS", Mask: DBFNewLocks},
		{Name: "NEW_STRINGS", Mask: DBFNewStrings},
		{Name: "TYPE_GARBAGE", Mask: DBFTypeGarbage},
		{Name: "SPLIT_IMMORTAL", Mask: DBFSplitImmortal},
		{Name: "NO_TEMPLE", Mask: DBFNoTemple},
		{Name: "LESS_GARBAGE", Mask: DBFLessGarbage},
		{Name: "AF_VISUAL", Mask: DBFAFVisual},
		{Name: "VALUE_IS_COST", Mask: DBFValueIsCost},
		{Name: "LINK_ANYWHERE", Mask: DBFLinkAnywhere},
		{Name: "NO_STARTUP_FLAG", Mask: DBFNoStartupFlag},
		{Name: "PANIC", Mask: DBFPanic},
		{Name: "AF_NODUMP", Mask: DBFAFNoDump},
		{Name: "SPIFFY_LOCKS", Mask: DBFSpiffyLocks},
		{Name: "NEW_FLAGS", Mask: DBFNewFlags},
		{Name: "NEW_POWERS", Mask: DBFNewPowers},
		{Name: "POWERS_LOGGED", Mask: DBFPowersLogged},
		{Name: "LABELS", Mask: DBFLabels},
		{Name: "SPIFFY_AF_ANSI", Mask: DBFSpiffyAFAnsi},
		{Name: "HEAR_CONNECT", Mask: DBFHearConnect},
		{Name: "NEW_VERSIONS", Mask: DBFNewVersions},
	}),

	VersionMask: 0xff,
	Types: []TypeDef{
		{PennRoom, KindRoom},
		{PennThing, KindThing},
		{PennExit, KindExit},
		{PennPlayer, KindPlayer},
		{PennGarbage, KindGarbage},
	},
	Versions: []Version{
		{Number: 2, Mandatory: p6hBase},
	},

	Attrs:         newAttrTable(nil),
	AttrNameMax:   1024,
	AttrNameChars: "_-.#`~!$%^&*+=|?'",

	PasswordAttr: "XYXXY",
}
