package cluster

// nicknameBase maps common English given-name nicknames to the formal name
// they abbreviate. Pass B keys buckets on the mapped form so "Bill Evans"
// and "William Evans" land in the same bucket. The table is intentionally
// conservative: only well-established equivalences, no fuzzy matching.
var nicknameBase = map[string]string{
	"abe":     "abraham",
	"al":      "albert",
	"alex":    "alexander",
	"andy":    "andrew",
	"ben":     "benjamin",
	"bert":    "albert",
	"beth":    "elizabeth",
	"bill":    "william",
	"billy":   "william",
	"bob":     "robert",
	"bobby":   "robert",
	"cathy":   "catherine",
	"charlie": "charles",
	"chris":   "christopher",
	"chuck":   "charles",
	"dan":     "daniel",
	"danny":   "daniel",
	"dave":    "david",
	"dick":    "richard",
	"don":     "donald",
	"drew":    "andrew",
	"ed":      "edward",
	"eddie":   "edward",
	"fred":    "frederick",
	"greg":    "gregory",
	"hank":    "henry",
	"harry":   "harold",
	"jack":    "john",
	"jim":     "james",
	"jimmy":   "james",
	"joe":     "joseph",
	"joey":    "joseph",
	"kate":    "katherine",
	"kathy":   "katherine",
	"ken":     "kenneth",
	"larry":   "lawrence",
	"liz":     "elizabeth",
	"matt":    "matthew",
	"meg":     "margaret",
	"mike":    "michael",
	"nick":    "nicholas",
	"pat":     "patricia",
	"patty":   "patricia",
	"peggy":   "margaret",
	"pete":    "peter",
	"rick":    "richard",
	"rob":     "robert",
	"ron":     "ronald",
	"sam":     "samuel",
	"steve":   "steven",
	"sue":     "susan",
	"ted":     "edward",
	"tim":     "timothy",
	"tom":     "thomas",
	"tommy":   "thomas",
	"tony":    "anthony",
	"will":    "william",
}

// nicknameKey returns the formal form of word when it is a known nickname,
// and word unchanged otherwise. The input must already be lowercase.
func nicknameKey(word string) string {
	if base, ok := nicknameBase[word]; ok {
		return base
	}
	return word
}
