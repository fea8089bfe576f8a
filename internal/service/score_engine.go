package service

import (
	"regexp"
	"strconv"
	"strings"

	"stay-on-one/internal/domain"
)

// deltaTokenRe reconoce el centinela que el coach agrega al final: DELTA:<signo opcional><digitos>.
var deltaTokenRe = regexp.MustCompile(`DELTA:([+-]?\d+)`)

// CheckinScore es el resultado puro de aplicar una respuesta del coach a un score.
type CheckinScore struct {
	NewScore    int
	Delta       int
	CleanedText string
}

// ParseDelta extrae el primer DELTA:<n> de reply y devuelve el texto sin ese token.
// Nunca falla: sin token, o con un entero que no cabe en int, el delta es 0.
// El delta crudo no se limita a [-20,20]; solo se limita el score resultante.
func ParseDelta(reply string) (int, string) {
	loc := deltaTokenRe.FindStringSubmatchIndex(reply)
	if loc == nil {
		return 0, strings.TrimSpace(reply)
	}

	cleaned := strings.TrimSpace(reply[:loc[0]] + reply[loc[1]:])
	delta, err := strconv.Atoi(reply[loc[2]:loc[3]])
	if err != nil {
		return 0, cleaned
	}
	return delta, cleaned
}

// ApplyCheckin calcula el nuevo score a partir del score actual y la respuesta del coach.
func ApplyCheckin(currentScore int, reply string) CheckinScore {
	delta, cleaned := ParseDelta(reply)
	return CheckinScore{
		NewScore:    ClampScore(ClampScore(currentScore) + boundedDelta(delta)),
		Delta:       delta,
		CleanedText: cleaned,
	}
}

// boundedDelta evita overflow en la suma; cualquier |delta| >= 100 satura igual.
func boundedDelta(d int) int {
	if d > domain.MaxScore {
		return domain.MaxScore
	}
	if d < -domain.MaxScore {
		return -domain.MaxScore
	}
	return d
}

// ClampScore limita el score a [0,100].
func ClampScore(s int) int {
	return domain.ClampScore(s)
}
