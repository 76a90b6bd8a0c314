package internal

import "strings"

type Lane string

const (
	LaneTop     Lane = "Top"
	LaneJungle  Lane = "Jungle"
	LaneMid     Lane = "Mid"
	LaneBottom  Lane = "Bottom"
	LaneSupport Lane = "Support"
	LaneUnknown Lane = "Unknown"
)

// canonicalLanes also fixes the tie-break order for mastery-based inference.
var canonicalLanes = []Lane{LaneTop, LaneJungle, LaneMid, LaneBottom, LaneSupport}

// ParseLane maps an upstream position label onto a canonical lane.
func ParseLane(position string) (Lane, bool) {
	switch strings.ToUpper(strings.TrimSpace(position)) {
	case "TOP":
		return LaneTop, true
	case "JUNGLE":
		return LaneJungle, true
	case "MIDDLE", "MID":
		return LaneMid, true
	case "BOTTOM", "BOT", "ADC", "CARRY":
		return LaneBottom, true
	case "UTILITY", "SUPPORT":
		return LaneSupport, true
	default:
		return "", false
	}
}

// InferRoleFromMatches returns the most played lane across matches. Matches
// are expected newest first; on a tie the lane seen in the most recent match
// wins. Matches without a recognizable position are ignored.
func InferRoleFromMatches(matches []MatchSummary) Lane {
	counts := make(map[Lane]int)
	firstSeen := make(map[Lane]int)

	for i, match := range matches {
		lane, ok := ParseLane(match.TeamPosition)
		if !ok {
			continue
		}
		if _, seen := firstSeen[lane]; !seen {
			firstSeen[lane] = i
		}
		counts[lane]++
	}

	best := LaneUnknown
	bestCount := 0
	for lane, count := range counts {
		if count > bestCount || (count == bestCount && firstSeen[lane] < firstSeen[best]) {
			best, bestCount = lane, count
		}
	}
	return best
}

// InferRoleFromMastery weights each champion's lanes by its mastery rank:
// max(1, 6-rank), so the top champion counts five times the fifth. A
// champion listed for several lanes adds its full weight to each.
func InferRoleFromMastery(entries []ChampionMasteryEntry) Lane {
	weights := make(map[Lane]int)

	for i, entry := range entries {
		lanes, ok := championLanes[entry.ChampionID]
		if !ok {
			continue
		}
		rank := entry.RankPosition
		if rank <= 0 {
			rank = i + 1
		}
		weight := max(1, 6-rank)
		for _, lane := range lanes {
			weights[lane] += weight
		}
	}

	best := LaneUnknown
	bestWeight := 0
	for _, lane := range canonicalLanes {
		if weights[lane] > bestWeight {
			best, bestWeight = lane, weights[lane]
		}
	}
	return best
}

// ChampionLanes returns the lanes a champion is commonly played in.
func ChampionLanes(championID int) []Lane {
	return championLanes[championID]
}

var championLanes = map[int][]Lane{
	1:   {LaneMid, LaneSupport},    // Annie
	2:   {LaneJungle, LaneTop},     // Olaf
	3:   {LaneMid, LaneSupport},    // Galio
	4:   {LaneMid},                 // Twisted Fate
	5:   {LaneJungle},              // Xin Zhao
	6:   {LaneTop},                 // Urgot
	7:   {LaneMid},                 // LeBlanc
	8:   {LaneMid, LaneTop},        // Vladimir
	9:   {LaneJungle},              // Fiddlesticks
	10:  {LaneTop},                 // Kayle
	11:  {LaneJungle},              // Master Yi
	12:  {LaneSupport},             // Alistar
	13:  {LaneMid, LaneTop},        // Ryze
	14:  {LaneTop},                 // Sion
	15:  {LaneBottom},              // Sivir
	16:  {LaneSupport},             // Soraka
	17:  {LaneTop},                 // Teemo
	18:  {LaneBottom, LaneMid},     // Tristana
	19:  {LaneJungle, LaneTop},     // Warwick
	20:  {LaneJungle},              // Nunu & Willump
	21:  {LaneBottom},              // Miss Fortune
	22:  {LaneBottom, LaneSupport}, // Ashe
	23:  {LaneTop},                 // Tryndamere
	24:  {LaneTop, LaneJungle},     // Jax
	25:  {LaneSupport, LaneMid},    // Morgana
	26:  {LaneSupport},             // Zilean
	27:  {LaneTop},                 // Singed
	28:  {LaneJungle},              // Evelynn
	29:  {LaneBottom, LaneJungle},  // Twitch
	30:  {LaneJungle, LaneMid},     // Karthus
	31:  {LaneTop},                 // Cho'Gath
	32:  {LaneJungle, LaneSupport}, // Amumu
	33:  {LaneJungle},              // Rammus
	34:  {LaneMid},                 // Anivia
	35:  {LaneJungle},              // Shaco
	36:  {LaneTop},                 // Dr. Mundo
	37:  {LaneSupport},             // Sona
	38:  {LaneMid},                 // Kassadin
	39:  {LaneTop, LaneMid},        // Irelia
	40:  {LaneSupport},             // Janna
	41:  {LaneTop},                 // Gangplank
	42:  {LaneMid},                 // Corki
	43:  {LaneSupport},             // Karma
	44:  {LaneSupport},             // Taric
	45:  {LaneMid},                 // Veigar
	51:  {LaneBottom},              // Caitlyn
	53:  {LaneSupport},             // Blitzcrank
	54:  {LaneTop},                 // Malphite
	55:  {LaneMid},                 // Katarina
	56:  {LaneJungle},              // Nocturne
	57:  {LaneSupport, LaneJungle}, // Maokai
	58:  {LaneTop},                 // Renekton
	59:  {LaneJungle},              // Jarvan IV
	60:  {LaneJungle},              // Elise
	61:  {LaneMid},                 // Orianna
	62:  {LaneJungle, LaneTop},     // Wukong
	63:  {LaneSupport, LaneMid},    // Brand
	64:  {LaneJungle},              // Lee Sin
	67:  {LaneBottom, LaneTop},     // Vayne
	68:  {LaneTop},                 // Rumble
	69:  {LaneMid},                 // Cassiopeia
	72:  {LaneJungle},              // Skarner
	74:  {LaneMid, LaneSupport},    // Heimerdinger
	75:  {LaneTop},                 // Nasus
	76:  {LaneJungle},              // Nidalee
	77:  {LaneJungle},              // Udyr
	78:  {LaneTop, LaneJungle},     // Poppy
	79:  {LaneJungle, LaneTop},     // Gragas
	80:  {LaneSupport, LaneTop},    // Pantheon
	81:  {LaneBottom},              // Ezreal
	82:  {LaneTop},                 // Mordekaiser
	83:  {LaneTop},                 // Yorick
	84:  {LaneMid, LaneTop},        // Akali
	85:  {LaneTop},                 // Kennen
	86:  {LaneTop},                 // Garen
	89:  {LaneSupport},             // Leona
	90:  {LaneMid},                 // Malzahar
	91:  {LaneMid, LaneJungle},     // Talon
	92:  {LaneTop},                 // Riven
	96:  {LaneBottom},              // Kog'Maw
	98:  {LaneTop},                 // Shen
	99:  {LaneSupport, LaneMid},    // Lux
	101: {LaneMid, LaneSupport},    // Xerath
	102: {LaneJungle},              // Shyvana
	103: {LaneMid},                 // Ahri
	104: {LaneJungle},              // Graves
	105: {LaneMid},                 // Fizz
	106: {LaneJungle, LaneTop},     // Volibear
	107: {LaneJungle},              // Rengar
	110: {LaneBottom},              // Varus
	111: {LaneSupport},             // Nautilus
	112: {LaneMid},                 // Viktor
	113: {LaneJungle},              // Sejuani
	114: {LaneTop},                 // Fiora
	115: {LaneMid, LaneBottom},     // Ziggs
	117: {LaneSupport},             // Lulu
	119: {LaneBottom},              // Draven
	120: {LaneJungle},              // Hecarim
	121: {LaneJungle},              // Kha'Zix
	122: {LaneTop},                 // Darius
	126: {LaneTop, LaneMid},        // Jayce
	127: {LaneMid},                 // Lissandra
	131: {LaneJungle, LaneMid},     // Diana
	133: {LaneTop},                 // Quinn
	134: {LaneMid},                 // Syndra
	136: {LaneMid},                 // Aurelion Sol
	141: {LaneJungle},              // Kayn
	142: {LaneMid},                 // Zoe
	143: {LaneSupport},             // Zyra
	145: {LaneBottom},              // Kai'Sa
	147: {LaneSupport, LaneBottom}, // Seraphine
	150: {LaneTop},                 // Gnar
	154: {LaneJungle},              // Zac
	157: {LaneMid, LaneTop},        // Yasuo
	161: {LaneSupport, LaneMid},    // Vel'Koz
	163: {LaneJungle, LaneMid},     // Taliyah
	164: {LaneTop},                 // Camille
	166: {LaneMid},                 // Akshan
	200: {LaneJungle},              // Bel'Veth
	201: {LaneSupport},             // Braum
	202: {LaneBottom},              // Jhin
	203: {LaneJungle},              // Kindred
	221: {LaneBottom},              // Zeri
	222: {LaneBottom},              // Jinx
	223: {LaneSupport, LaneTop},    // Tahm Kench
	234: {LaneJungle},              // Viego
	235: {LaneSupport, LaneBottom}, // Senna
	236: {LaneBottom},              // Lucian
	238: {LaneMid},                 // Zed
	240: {LaneTop},                 // Kled
	245: {LaneJungle, LaneMid},     // Ekko
	246: {LaneMid},                 // Qiyana
	254: {LaneJungle},              // Vi
	266: {LaneTop},                 // Aatrox
	267: {LaneSupport},             // Nami
	268: {LaneMid},                 // Azir
	350: {LaneSupport},             // Yuumi
	360: {LaneBottom},              // Samira
	412: {LaneSupport},             // Thresh
	420: {LaneTop},                 // Illaoi
	421: {LaneJungle},              // Rek'Sai
	427: {LaneJungle},              // Ivern
	429: {LaneBottom},              // Kalista
	432: {LaneSupport},             // Bard
	516: {LaneTop},                 // Ornn
	517: {LaneMid, LaneJungle},     // Sylas
	518: {LaneMid, LaneSupport},    // Neeko
	523: {LaneBottom},              // Aphelios
	526: {LaneSupport},             // Rell
	555: {LaneSupport},             // Pyke
	711: {LaneMid},                 // Vex
	777: {LaneMid, LaneTop},        // Yone
	875: {LaneTop},                 // Sett
	876: {LaneJungle},              // Lillia
	887: {LaneTop},                 // Gwen
	888: {LaneSupport},             // Renata Glasc
	895: {LaneBottom},              // Nilah
	897: {LaneTop},                 // K'Sante
	901: {LaneBottom},              // Smolder
	902: {LaneSupport},             // Milio
	910: {LaneMid},                 // Hwei
	950: {LaneMid},                 // Naafiri
}
