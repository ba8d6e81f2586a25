package style

import "regexp"

var laughPattern = regexp.MustCompile(`^(ha){2,}h?$|^(he){2,}h?$|^(lo)+l$`)

var slangLexicon = map[string]struct{}{
	"lol": {}, "lmao": {}, "rofl": {}, "omg": {}, "btw": {}, "tbh": {}, "idk": {}, "imo": {}, "imho": {},
	"gonna": {}, "wanna": {}, "gotta": {}, "kinda": {}, "sorta": {}, "ya": {}, "yall": {}, "y'all": {},
	"ur": {}, "thx": {}, "ty": {}, "np": {}, "brb": {}, "ttyl": {}, "lmk": {}, "fyi": {}, "asap": {},
	"nvm": {}, "rn": {}, "af": {}, "bruh": {}, "dude": {}, "yep": {}, "yup": {}, "nope": {}, "nah": {},
	"cool": {}, "awesome": {}, "legit": {}, "dope": {}, "lit": {}, "haha": {}, "hehe": {}, "xoxo": {},
	"smh": {}, "fr": {}, "ngl": {}, "irl": {}, "pls": {}, "plz": {}, "cya": {}, "gg": {}, "tho": {},
}

// slangTokens returns the informal words found in tokens, folding
// laughter variants such as "hahaha" into one form.
func slangTokens(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		switch {
		case laughPattern.MatchString(tok):
			if tok[0] == 'h' && tok[1] == 'e' {
				out = append(out, "hehe")
			} else if tok[0] == 'h' {
				out = append(out, "haha")
			} else {
				out = append(out, "lol")
			}
		default:
			if _, ok := slangLexicon[tok]; ok {
				out = append(out, tok)
			}
		}
	}
	return out
}
