package scripture

// Book describes one book of the Bible and the names it is cited by.
type Book struct {
	// Name is the canonical English title (e.g., "1 Corinthians").
	Name string `json:"name"`

	// OSIS is the OSIS book ID (e.g., "1Cor").
	OSIS string `json:"osis"`

	// Abbrev is the display abbreviation (e.g., "1 Cor.").
	Abbrev string `json:"abbrev"`

	// Canonical is false for deuterocanonical and other extra-canonical titles.
	Canonical bool `json:"canonical"`

	// Aliases are lowercase abbreviations and alternate spellings.
	Aliases []string `json:"aliases,omitempty"`
}

// defaultBooks is the Protestant canon in order, followed by extra-canonical titles.
var defaultBooks = []Book{
	// Old Testament
	{"Genesis", "Gen", "Gen.", true, []string{"gen", "ge", "gn"}},
	{"Exodus", "Exod", "Ex.", true, []string{"ex", "exo", "exod"}},
	{"Leviticus", "Lev", "Lev.", true, []string{"lev", "le", "lv"}},
	{"Numbers", "Num", "Num.", true, []string{"num", "nu", "nm", "nb"}},
	{"Deuteronomy", "Deut", "Deut.", true, []string{"deut", "deu", "dt"}},
	{"Joshua", "Josh", "Josh.", true, []string{"josh", "jos", "jsh"}},
	{"Judges", "Judg", "Judg.", true, []string{"judg", "jdg", "jg", "jdgs"}},
	{"Ruth", "Ruth", "Ruth", true, []string{"ru", "rth"}},
	{"1 Samuel", "1Sam", "1 Sam.", true, []string{"1 sam", "1 sa", "1sm", "i sam", "i samuel", "1st samuel", "first samuel"}},
	{"2 Samuel", "2Sam", "2 Sam.", true, []string{"2 sam", "2 sa", "2sm", "ii sam", "ii samuel", "2nd samuel", "second samuel"}},
	{"1 Kings", "1Kgs", "1 Kgs.", true, []string{"1 kgs", "1 ki", "i kings", "i kgs", "1st kings", "first kings"}},
	{"2 Kings", "2Kgs", "2 Kgs.", true, []string{"2 kgs", "2 ki", "ii kings", "ii kgs", "2nd kings", "second kings"}},
	{"1 Chronicles", "1Chr", "1 Chr.", true, []string{"1 chr", "1 chron", "1 ch", "i chr", "i chronicles", "1st chronicles", "first chronicles"}},
	{"2 Chronicles", "2Chr", "2 Chr.", true, []string{"2 chr", "2 chron", "2 ch", "ii chr", "ii chronicles", "2nd chronicles", "second chronicles"}},
	{"Ezra", "Ezra", "Ezra", true, []string{"ezr"}},
	{"Nehemiah", "Neh", "Neh.", true, []string{"neh", "ne"}},
	{"Esther", "Esth", "Est.", true, []string{"esth", "est", "es"}},
	{"Job", "Job", "Job", true, []string{"jb"}},
	{"Psalms", "Ps", "Ps.", true, []string{"ps", "psa", "psalm", "pslm", "psm", "pss"}},
	{"Proverbs", "Prov", "Prov.", true, []string{"prov", "pro", "prv", "pr", "pv"}},
	{"Ecclesiastes", "Eccl", "Eccl.", true, []string{"eccl", "ecc", "ec", "eccles", "qoh", "qoheleth"}},
	{"Song of Solomon", "Song", "Song", true, []string{"song", "song of songs", "sos", "so", "canticles", "canticle of canticles"}},
	{"Isaiah", "Isa", "Isa.", true, []string{"isa", "is"}},
	{"Jeremiah", "Jer", "Jer.", true, []string{"jer", "je", "jr"}},
	{"Lamentations", "Lam", "Lam.", true, []string{"lam", "la"}},
	{"Ezekiel", "Ezek", "Ezek.", true, []string{"ezek", "eze", "ezk", "ez"}},
	{"Daniel", "Dan", "Dan.", true, []string{"dan", "da", "dn"}},
	{"Hosea", "Hos", "Hos.", true, []string{"hos", "ho"}},
	{"Joel", "Joel", "Joel", true, []string{"jl"}},
	{"Amos", "Amos", "Amos", true, []string{"am"}},
	{"Obadiah", "Obad", "Obad.", true, []string{"obad", "ob"}},
	{"Jonah", "Jonah", "Jon.", true, []string{"jon", "jnh"}},
	{"Micah", "Mic", "Mic.", true, []string{"mic", "mi", "mc"}},
	{"Nahum", "Nah", "Nah.", true, []string{"nah", "na"}},
	{"Habakkuk", "Hab", "Hab.", true, []string{"hab", "hb"}},
	{"Zephaniah", "Zeph", "Zeph.", true, []string{"zeph", "zep", "zp"}},
	{"Haggai", "Hag", "Hag.", true, []string{"hag", "hg"}},
	{"Zechariah", "Zech", "Zech.", true, []string{"zech", "zec", "zc"}},
	{"Malachi", "Mal", "Mal.", true, []string{"mal", "ml"}},

	// New Testament
	{"Matthew", "Matt", "Matt.", true, []string{"matt", "mat", "mt"}},
	{"Mark", "Mark", "Mk.", true, []string{"mrk", "mk", "mr"}},
	{"Luke", "Luke", "Lk.", true, []string{"luk", "lk"}},
	{"John", "John", "Jn.", true, []string{"jn", "jhn", "joh"}},
	{"Acts", "Acts", "Acts", true, []string{"act", "ac"}},
	{"Romans", "Rom", "Rom.", true, []string{"rom", "ro", "rm"}},
	{"1 Corinthians", "1Cor", "1 Cor.", true, []string{"1 cor", "1 co", "i cor", "i corinthians", "1st corinthians", "first corinthians"}},
	{"2 Corinthians", "2Cor", "2 Cor.", true, []string{"2 cor", "2 co", "ii cor", "ii corinthians", "2nd corinthians", "second corinthians"}},
	{"Galatians", "Gal", "Gal.", true, []string{"gal", "ga"}},
	{"Ephesians", "Eph", "Eph.", true, []string{"eph", "ephes", "ep"}},
	{"Philippians", "Phil", "Phil.", true, []string{"phil", "php", "pp"}},
	{"Colossians", "Col", "Col.", true, []string{"col", "cl"}},
	{"1 Thessalonians", "1Thess", "1 Thess.", true, []string{"1 thess", "1 thes", "1 th", "i thess", "i thessalonians", "1st thessalonians", "first thessalonians"}},
	{"2 Thessalonians", "2Thess", "2 Thess.", true, []string{"2 thess", "2 thes", "2 th", "ii thess", "ii thessalonians", "2nd thessalonians", "second thessalonians"}},
	{"1 Timothy", "1Tim", "1 Tim.", true, []string{"1 tim", "1 ti", "i tim", "i timothy", "1st timothy", "first timothy"}},
	{"2 Timothy", "2Tim", "2 Tim.", true, []string{"2 tim", "2 ti", "ii tim", "ii timothy", "2nd timothy", "second timothy"}},
	{"Titus", "Titus", "Tit.", true, []string{"tit", "ti"}},
	{"Philemon", "Phlm", "Philem.", true, []string{"philem", "phm", "phlm"}},
	{"Hebrews", "Heb", "Heb.", true, []string{"heb", "he"}},
	{"James", "Jas", "Jas.", true, []string{"jas", "jam", "jm", "ja"}},
	{"1 Peter", "1Pet", "1 Pet.", true, []string{"1 pet", "1 pe", "1 pt", "i pet", "i peter", "1st peter", "first peter"}},
	{"2 Peter", "2Pet", "2 Pet.", true, []string{"2 pet", "2 pe", "2 pt", "ii pet", "ii peter", "2nd peter", "second peter"}},
	{"1 John", "1John", "1 Jn.", true, []string{"1 jn", "1 jo", "1 jhn", "i john", "i jn", "1st john", "first john"}},
	{"2 John", "2John", "2 Jn.", true, []string{"2 jn", "2 jo", "2 jhn", "ii john", "ii jn", "2nd john", "second john"}},
	{"3 John", "3John", "3 Jn.", true, []string{"3 jn", "3 jo", "3 jhn", "iii john", "iii jn", "3rd john", "third john"}},
	{"Jude", "Jude", "Jude", true, []string{"jud", "jd"}},
	{"Revelation", "Rev", "Rev.", true, []string{"rev", "re", "rv", "revelations", "apocalypse"}},

	// Deuterocanon
	{"Tobit", "Tob", "Tob.", false, []string{"tob", "tb", "book of tobit"}},
	{"Judith", "Jdt", "Jdt.", false, []string{"jdt", "jth", "book of judith"}},
	{"Additions to Esther", "AddEsth", "Add. Esth.", false, []string{"add esth", "ad esth", "greek esther", "rest of esther"}},
	{"Wisdom of Solomon", "Wis", "Wis.", false, []string{"wis", "wisd", "wisdom", "book of wisdom"}},
	{"Sirach", "Sir", "Sir.", false, []string{"sir", "ecclesiasticus", "ecclus", "book of sirach"}},
	{"Baruch", "Bar", "Bar.", false, []string{"bar", "book of baruch"}},
	{"Letter of Jeremiah", "EpJer", "Ep. Jer.", false, []string{"ep jer", "let jer", "epistle of jeremiah", "epistle of jeremy"}},
	{"Prayer of Azariah", "PrAzar", "Pr. Azar.", false, []string{"pr azar", "azariah", "song of the three"}},
	{"Susanna", "Sus", "Sus.", false, []string{"sus", "book of susanna"}},
	{"Bel and the Dragon", "Bel", "Bel", false, []string{"bel", "bel dragon"}},
	{"1 Maccabees", "1Macc", "1 Macc.", false, []string{"1 macc", "1 mac", "i macc", "i maccabees", "1st maccabees", "first maccabees"}},
	{"2 Maccabees", "2Macc", "2 Macc.", false, []string{"2 macc", "2 mac", "ii macc", "ii maccabees", "2nd maccabees", "second maccabees"}},
	{"3 Maccabees", "3Macc", "3 Macc.", false, []string{"3 macc", "3 mac", "iii macc", "iii maccabees", "book of 3 maccabees"}},
	{"4 Maccabees", "4Macc", "4 Macc.", false, []string{"4 macc", "4 mac", "iv macc", "iv maccabees", "book of 4 maccabees"}},
	{"1 Esdras", "1Esd", "1 Esd.", false, []string{"1 esd", "i esd", "i esdras", "book of 1 esdras"}},
	{"2 Esdras", "2Esd", "2 Esd.", false, []string{"2 esd", "ii esd", "ii esdras", "book of 2 esdras"}},
	{"Prayer of Manasseh", "PrMan", "Pr. Man.", false, []string{"pr man", "manasseh", "book of the prayer of manasseh"}},
	{"Psalm 151", "AddPs", "Ps. 151", false, []string{"ps 151", "psalms 151"}},

	// Greek additions
	{"Odes", "Odes", "Odes", false, []string{"ode", "book of odes"}},
	{"Psalms of Solomon", "PssSol", "Pss. Sol.", false, []string{"pss sol", "ps sol", "book of psalms of solomon"}},

	// Slavonic and other Orthodox
	{"3 Baruch", "3Bar", "3 Bar.", false, []string{"3 bar", "iii baruch", "book of 3 baruch"}},
	{"4 Baruch", "4Bar", "4 Bar.", false, []string{"4 bar", "iv baruch", "book of 4 baruch"}},
	{"1 Enoch", "1En", "1 En.", false, []string{"1 en", "enoch", "book of enoch", "book of 1 enoch"}},
	{"2 Enoch", "2En", "2 En.", false, []string{"2 en", "book of 2 enoch"}},
	{"Jubilees", "Jub", "Jub.", false, []string{"jub", "book of jubilees"}},
	{"Testament of the Twelve Patriarchs", "T12Patr", "T. 12 Patr.", false, []string{"t12patr", "testaments of the twelve patriarchs", "book of the twelve patriarchs"}},
}
