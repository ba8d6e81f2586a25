package analysis

var stopWords = buildStopWords([]string{
	"a", "about", "above", "across", "after", "afterwards", "again", "against", "ago", "ah", "all", "almost",
	"alone", "along", "already", "also", "although", "always", "am", "among", "amongst", "an", "and",
	"another", "any", "anybody", "anyhow", "anyone", "anything", "anyway", "anyways", "anywhere", "are",
	"aren't", "around", "as", "aside", "at", "away", "back", "be", "became", "because", "become", "becomes",
	"becoming", "been", "before", "beforehand", "behind", "being", "below", "beside", "besides", "between",
	"beyond", "both", "but", "by", "came", "can", "can't", "cannot", "cant", "come", "comes", "could",
	"couldn't", "couldnt", "did", "didn't", "didnt", "do", "does", "doesn't", "doesnt", "doing", "don't",
	"dont", "done", "down", "during", "each", "either", "else", "elsewhere", "enough", "etc", "even",
	"ever", "every", "everybody", "everyone", "everything", "everywhere", "except", "far", "few", "for",
	"former", "formerly", "from", "further", "furthermore", "get", "gets", "getting", "give", "given",
	"gives", "go", "goes", "going", "gone", "got", "gotten", "had", "hadn't", "has", "hasn't", "have",
	"haven't", "having", "he", "he'd", "he'll", "he's", "hence", "her", "here", "here's", "hereafter",
	"hereby", "herein", "hers", "herself", "him", "himself", "his", "how", "how's", "however", "i", "i'd",
	"i'll", "i'm", "i've", "id", "ie", "if", "im", "in", "inc", "indeed", "instead", "into", "is", "isn't",
	"it", "it'd", "it'll", "it's", "its", "itself", "ive", "just", "keep", "keeps", "kept", "know", "knows",
	"last", "later", "latter", "least", "less", "let", "let's", "lets", "like", "likely", "ltd", "made",
	"make", "makes", "many", "may", "maybe", "me", "meanwhile", "might", "mine", "more", "moreover", "most",
	"mostly", "much", "must", "mustn't", "my", "myself", "namely", "near", "nearly", "need", "needs",
	"neither", "never", "nevertheless", "next", "no", "nobody", "none", "noone", "nor", "not", "nothing",
	"now", "nowhere", "of", "off", "often", "oh", "ok", "okay", "on", "once", "one", "ones", "only", "onto",
	"or", "other", "others", "otherwise", "our", "ours", "ourselves", "out", "over", "overall", "own",
	"per", "perhaps", "please", "put", "quite", "rather", "re", "really", "said", "same", "say", "says",
	"see", "seem", "seemed", "seeming", "seems", "seen", "several", "shall", "shan't", "she", "she'd",
	"she'll", "she's", "should", "shouldn't", "since", "so", "some", "somebody", "somehow", "someone",
	"something", "sometime", "sometimes", "somewhat", "somewhere", "soon", "still", "such", "sure", "take",
	"taken", "takes", "than", "that", "that'll", "that's", "thats", "the", "their", "theirs", "them",
	"themselves", "then", "thence", "there", "there's", "thereafter", "thereby", "therefore", "therein",
	"theres", "these", "they", "they'd", "they'll", "they're", "they've", "thing", "things", "think",
	"this", "those", "though", "through", "throughout", "thru", "thus", "to", "together", "too", "took",
	"toward", "towards", "under", "unless", "until", "up", "upon", "us", "use", "used", "uses", "using",
	"very", "via", "want", "wants", "was", "wasn't", "way", "we", "we'd", "we'll", "we're", "we've", "well",
	"went", "were", "weren't", "what", "what's", "whatever", "when", "when's", "whence", "whenever",
	"where", "where's", "whereafter", "whereas", "whereby", "wherein", "whereupon", "wherever", "whether",
	"which", "while", "whither", "who", "who's", "whoever", "whole", "whom", "whose", "why", "why's",
	"will", "with", "within", "without", "won't", "would", "wouldn't", "yeah", "yes", "yet", "you",
	"you'd", "you'll", "you're", "you've", "your", "yours", "yourself", "yourselves", "youre",
})

func buildStopWords(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// RemoveStopWords drops stop words along with tokens shorter than two
// characters and purely numeric tokens. The input is not modified.
func RemoveStopWords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < minTokenLen || isNumeric(tok) || IsStopWord(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
