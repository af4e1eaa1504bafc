package trigger

// Classifier model data. The tables below are the trained logistic-regression
// weights for the auto-trigger decision; they are configuration, not logic.
// A label missing from a category contributes 0 to the score.

type normalizedBounds struct {
	LenRight    float64
	LenLeftCur  float64
	LenLeftPrev float64
	LineNum     float64
}

type coefficientTable struct {
	TriggerType map[string]float64
	OS          map[string]float64
	Char        map[string]float64
	Language    map[string]float64
	IDE         map[string]float64

	PrevDecisionAccept float64
	PrevDecisionReject float64
	PrevDecisionOther  float64

	LengthOfRight       float64
	LengthOfLeftCurrent float64
	LengthOfLeftPrev    float64
	LineNum             float64
	Intercept           float64

	LengthLeft0To5   float64
	LengthLeft5To10  float64
	LengthLeft10To20 float64
	LengthLeft20To30 float64
	LengthLeft30To40 float64
	LengthLeft40To50 float64

	Minn normalizedBounds
	Maxx normalizedBounds
}

var coefficients = coefficientTable{
	TriggerType: map[string]float64{
		"SpecialCharacters": 0.062397,
		"Enter":             0.207027,
	},
	OS: map[string]float64{
		"Mac OS X":   -0.1552,
		"Windows 10": -0.0238,
		"Windows 7":  0.0366,
		"Linux":      -0.0778,
	},
	Language: map[string]float64{
		"java":       -0.4622,
		"javascript": -0.4688,
		"python":     -0.3475,
		"typescript": -0.6084,
		"tsx":        -0.6084,
		"jsx":        -0.4688,
		"shell":      -0.4718,
		"ruby":       -0.7356,
		"sql":        -0.4937,
		"rust":       -0.4309,
		"kotlin":     -0.4739,
		"php":        -0.3917,
		"csharp":     -0.3475,
		"go":         -0.3504,
		"scala":      -0.5340,
		"c":          -0.1296,
		"cpp":        -0.1293,
	},
	IDE: map[string]float64{
		"VSCODE":    0.0,
		"JETBRAINS": -0.2602,
	},

	PrevDecisionAccept: 0.5397,
	PrevDecisionReject: -0.1656,
	PrevDecisionOther:  0.0,

	LengthOfRight:       -0.5174,
	LengthOfLeftCurrent: -1.0103,
	LengthOfLeftPrev:    0.4099,
	LineNum:             -0.0416,
	Intercept:           0.3738713,

	LengthLeft0To5:   -0.8756,
	LengthLeft5To10:  -0.5463,
	LengthLeft10To20: -0.4081,
	LengthLeft20To30: -0.3272,
	LengthLeft30To40: -0.2442,
	LengthLeft40To50: -0.1471,

	Minn: normalizedBounds{LenRight: 0, LenLeftCur: 0, LenLeftPrev: 0, LineNum: 0},
	Maxx: normalizedBounds{LenRight: 10239, LenLeftCur: 166, LenLeftPrev: 161, LineNum: 2085},

	// Keystroke and last-token weights. Keywords share the table with single
	// characters; tokens longer than one character are language keywords.
	Char: map[string]float64{
		"(":        0.5349,
		")":        -0.5635,
		"[":        0.4822,
		"]":        -0.6192,
		"{":        0.4378,
		"}":        -0.7303,
		":":        0.3192,
		";":        -1.1868,
		",":        -0.2921,
		".":        -0.2917,
		"=":        0.2754,
		"*":        -0.9022,
		"+":        -0.4313,
		"-":        -0.3356,
		"/":        -0.6851,
		"\\":       -0.7720,
		"%":        -0.6325,
		"<":        -0.0949,
		">":        -0.4527,
		"&":        -0.4682,
		"|":        -0.3557,
		"!":        -0.6602,
		"?":        -0.4842,
		"@":        -0.1552,
		"#":        -1.3832,
		"$":        -0.5950,
		"\"":       -1.1070,
		"'":        -1.0746,
		"`":        -0.9179,
		"_":        -0.1872,
		"0":        -1.3710,
		"1":        -1.1180,
		"2":        -1.3870,
		"3":        -1.4651,
		"4":        -1.4775,
		"5":        -1.5178,
		"6":        -1.6077,
		"7":        -1.6365,
		"8":        -1.4381,
		"9":        -1.3450,
		"true":     -0.9484,
		"false":    -1.0884,
		"True":     -0.9473,
		"False":    -1.0745,
		"nil":      -0.7420,
		"null":     -0.7210,
		"None":     -0.6963,
		"if":       0.2593,
		"elif":     0.4902,
		"else":     0.1613,
		"for":      0.2360,
		"while":    0.2169,
		"return":   0.3761,
		"throw":    0.5868,
		"break":    -0.5737,
		"continue": -0.4796,
		"pass":     -0.7370,
		"import":   -0.3220,
		"from":     -0.1537,
		"def":      0.6524,
		"func":     0.5951,
		"function": 0.5786,
		"class":    0.4822,
		"struct":   0.4329,
		"enum":     0.2876,
		"switch":   0.2878,
		"case":     0.3178,
		"try":      0.3948,
		"catch":    0.3711,
		"except":   0.3344,
		"finally":  0.1693,
		"new":      0.4355,
		"delete":   0.1490,
		"in":       0.1985,
		"of":       0.1708,
		"is":       -0.6106,
		"not":      0.1385,
		"and":      0.2043,
		"or":       0.1655,
		"await":    0.4029,
		"async":    0.3554,
		"yield":    0.2743,
		"raise":    0.4175,
		"lambda":   0.3621,
		"const":    0.2383,
		"let":      0.2504,
		"var":      0.2194,
		"with":     0.2549,
		"as":       0.1312,
	},
}
