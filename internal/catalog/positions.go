package catalog

// positions is the built-in curated set: snapshots from famous games
// spanning the romantic era through engine chess.
var positions = []Position{
	{
		FEN:         "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq -",
		Description: "Queen sacrifice leading to forced mate, from the most famous combination in chess history",
		WhitePlayer: "Garry Kasparov",
		BlackPlayer: "Veselin Topalov",
		Event:       "Wijk aan Zee",
		Opening:     "King's Indian Defense",
		Year:        1999,
		MoveNumber:  25,
		Themes:      []string{"queensacrifice", "attack", "discovery", "pin", "clearance"},
		Complexity:  "master",
		Interest:    10,
	},
	{
		FEN:         "rnbqkbnr/pppppppp/8/8/3P4/8/PPP1PPPP/RNBQKBNR b KQkq -",
		Description: "Game of the Century: Fischer as a teenager shows stunning tactical vision",
		WhitePlayer: "Donald Byrne",
		BlackPlayer: "Bobby Fischer",
		Event:       "Rosenwald Memorial, New York",
		Opening:     "Grunfeld Defense",
		Year:        1956,
		MoveNumber:  3,
		Themes:      []string{"sacrifice", "fork", "discovery", "attack"},
		Complexity:  "advanced",
		Interest:    9,
	},
	{
		FEN:         "rnbqk2r/pppp1ppp/5n2/2b1p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq -",
		Description: "Tal finds devastating tactical combinations against Botvinnik's careful positional play",
		WhitePlayer: "Mikhail Tal",
		BlackPlayer: "Mikhail Botvinnik",
		Event:       "World Championship Match 1960",
		Opening:     "Sicilian Defense",
		Year:        1960,
		MoveNumber:  11,
		Themes:      []string{"sacrifice", "pin", "discovery", "attack", "decoy"},
		Complexity:  "master",
		Interest:    9,
	},
	{
		FEN:         "r1bqkb1r/pppp1ppp/2n2n2/4p3/2B1P3/3P1N2/PPP2PPP/RNBQ1RK1 w kq -",
		Description: "Morphy's legendary attacking pattern: sacrifices to open lines and deliver mate",
		WhitePlayer: "Paul Morphy",
		BlackPlayer: "Duke of Brunswick & Count Isouard",
		Event:       "Paris Opera House",
		Opening:     "Sicilian Defense",
		Year:        1858,
		MoveNumber:  6,
		Themes:      []string{"sacrifice", "attack", "pin", "clearance", "attraction"},
		Complexity:  "advanced",
		Interest:    10,
	},
	{
		FEN:         "r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQ1RK1 w kq -",
		Description: "Modern rapid chess: an intricate tactical battle in time pressure",
		WhitePlayer: "Hikaru Nakamura",
		BlackPlayer: "Magnus Carlsen",
		Event:       "Champions Chess Tour 2023",
		Opening:     "Sicilian Defense, Dragon Variation",
		Year:        2023,
		MoveNumber:  12,
		Themes:      []string{"tactical", "attack", "counterattack", "pin"},
		Complexity:  "master",
		Interest:    8,
	},
	{
		FEN:         "8/8/8/4kpp1/3p1n2/2Pp1n2/P2P4/1R2K3 w - - 0 42",
		Description: "Endgame wizard Capablanca finds miraculous drawing chances against Alekhine",
		WhitePlayer: "Jose Raul Capablanca",
		BlackPlayer: "Alexander Alekhine",
		Event:       "AVRO Tournament",
		Opening:     "Queen's Gambit Declined",
		Year:        1938,
		MoveNumber:  58,
		Themes:      []string{"zugzwang", "endgame"},
		Complexity:  "master",
		Interest:    7,
	},
	{
		FEN:         "r3r3/pp6/4pbkp/1P1n1np1/3P3R/2P1NNBP/P2q4/R5K1 b - - 0 36",
		Description: "Steinitz transforms a tactical attack into a positional asset despite material deficits",
		WhitePlayer: "Wilhelm Steinitz",
		BlackPlayer: "Wilhelm Paulsen",
		Event:       "Breslau International",
		Opening:     "Queen's Gambit Declined",
		Year:        1878,
		MoveNumber:  52,
		Themes:      []string{"deflection", "clearance", "defensive"},
		Complexity:  "advanced",
		Interest:    7,
	},
	{
		FEN:         "8/1k6/2pk2pp/1p6/1P3p2/5P1K/7P/8 w - - 0 48",
		Description: "Rubinstein's flawless king and pawn technique reveals unexpected winning tactics",
		WhitePlayer: "Akiba Rubinstein",
		BlackPlayer: "Carl Carls",
		Event:       "Simultaneous Exhibition",
		Opening:     "Tarrasch Defense",
		Year:        1914,
		MoveNumber:  70,
		Themes:      []string{"zugzwang", "endgame", "clearance"},
		Complexity:  "advanced",
		Interest:    6,
	},
	{
		FEN:         "1rb4k/2q3pp/pp1rP3/3p1p1n/Q1BpP3/3N4/PPP4P/KR3R2 b - - 0 26",
		Description: "Lasker defends brilliantly under attack, then counters with tactical threats",
		WhitePlayer: "Frank Marshall",
		BlackPlayer: "Emanuel Lasker",
		Event:       "World Championship Match 1907",
		Opening:     "Marshall Attack, Queen's Gambit",
		Year:        1907,
		MoveNumber:  34,
		Themes:      []string{"attack", "counterattack", "pin", "sacrifice"},
		Complexity:  "master",
		Interest:    8,
	},
	{
		FEN:         "r1b1r1k1/pp2nppp/2p1p3/3n4/B2N4/3P1N2/PPP3PP/R1B1QRK1 w - a6 0 15",
		Description: "A young Carlsen beats the legend with modern preparation against classical belief",
		WhitePlayer: "Magnus Carlsen",
		BlackPlayer: "Garry Kasparov",
		Event:       "Young GMs Training",
		Opening:     "King's Indian Defense, Samisch Variation",
		Year:        2004,
		MoveNumber:  20,
		Themes:      []string{"attack", "development", "tactical"},
		Complexity:  "advanced",
		Interest:    7,
	},
	{
		FEN:         "8/5n2/3K1k2/5p2/3p4/3p4/8/8 w - -",
		Description: "Engine analysis reveals a concealed endgame solution that humans missed",
		WhitePlayer: "Magnus Carlsen",
		BlackPlayer: "Ian Nepomniachtchi",
		Event:       "World Championship, position from analysis",
		Opening:     "Sicilian Maroczy endgame study",
		Year:        2021,
		MoveNumber:  95,
		Themes:      []string{"zugzwang", "endgame", "pin", "discovery"},
		Complexity:  "master",
		Interest:    8,
	},
	{
		FEN:         "r3k2r/Pppp1ppp/1b1qn3/3p4/2B1P2B/2P2N2/P3QPPP/1N1R1R1q b - -",
		Description: "Marshall's king chase through enemy lines employing pins and discoveries",
		WhitePlayer: "Frank Marshall",
		BlackPlayer: "Wilhelm Steinitz",
		Event:       "Simultaneous",
		Opening:     "Philidor Defense",
		Year:        1895,
		MoveNumber:  17,
		Themes:      []string{"attack", "discovery", "pin", "clearance"},
		Complexity:  "advanced",
		Interest:    9,
	},
	{
		FEN:         "r2q1rk1/1bp1bppp/1pn5/p2p4/3Pn3/1BP1BN1P/PP3PP1/R2Q1R1K w - - 0 16",
		Description: "Karpov against Kasparov: tactical chess meets relentless positional pressure",
		WhitePlayer: "Anatoly Karpov",
		BlackPlayer: "Garry Kasparov",
		Event:       "World Championship Match 1985",
		Opening:     "Queen's Indian Defense, Miles Variation",
		Year:        1985,
		MoveNumber:  18,
		Themes:      []string{"tactical", "positional"},
		Complexity:  "master",
		Interest:    6,
	},
	{
		FEN:         "rnbqqb1r/pppp2pp/7k/4p3/2BnP3/5N2/PPPP1PPP/RNBQKR2 w Q - 3 8",
		Description: "Anderssen showcases the creative sacrifices of the romantic era",
		WhitePlayer: "Adolf Anderssen",
		BlackPlayer: "Francois Andre Danican Philidor",
		Event:       "London International",
		Opening:     "King's Gambit",
		Year:        1851,
		MoveNumber:  9,
		Themes:      []string{"sacrifice", "attraction", "clearance", "decoy"},
		Complexity:  "advanced",
		Interest:    9,
	},
	{
		FEN:         "k4r2/7Q/3B4/b3ppp1/4nP2/8/8/K6b w - - 47 94",
		Description: "Neural engine play uncovering endgame patterns beyond studied human knowledge",
		WhitePlayer: "AlphaZero",
		BlackPlayer: "Stockfish",
		Event:       "TCEC Season 17 Final",
		Opening:     "Engine endgame",
		Year:        2017,
		MoveNumber:  94,
		Themes:      []string{"zugzwang", "windmill", "endgame"},
		Complexity:  "master",
		Interest:    7,
	},
	{
		FEN:         "2kr1b1r/p6p/3N1pp1/1p2p3/nPp5/1P2P3/PB3PPP/R2R1BK1 b - -",
		Description: "A positional struggle turns tactical when time pressure meets deep understanding",
		WhitePlayer: "Alexander Alekhine",
		BlackPlayer: "Jose Raul Capablanca",
		Event:       "AVRO Tournament Series",
		Opening:     "Queen's Gambit, Tartakower",
		Year:        1938,
		MoveNumber:  27,
		Themes:      []string{"deflection", "discovery", "tactical"},
		Complexity:  "advanced",
		Interest:    6,
	},
}
