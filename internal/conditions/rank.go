package conditions

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/voxcast/forecast-narrator/internal/models"
)

// MonthlyTemps holds the historical average high and low for one month.
type MonthlyTemps struct {
	High float64 `yaml:"high" json:"high"`
	Low  float64 `yaml:"low" json:"low"`
}

// Config holds the classification thresholds for a deployment. Values are
// read-only after construction; the classifier never mutates them.
type Config struct {
	DewPointBreak float64 // dew point above which air feels muggy
	HumidityBreak float64 // relative humidity percentage (e.g. 70)
	WindBreak     float64 // wind speed above which wind is worth mentioning
	CloudBreak    float64 // cloud cover fraction above which clouds are notable
	HighTempBreak float64 // absolute high above which heat can fire
	LowTempBreak  float64 // absolute high below which cold can fire
	NightTempBreak float64 // overnight low below which a cold night fires

	// AvgTemps is the month-indexed (January = 0) historical average table
	// the temperature rules compare against.
	AvgTemps [12]MonthlyTemps

	// Location resolves sample timestamps to a calendar month.
	Location *time.Location
}

// Condition is one classified, ranked, narratable weather topic.
type Condition struct {
	Topic       Topic   `json:"topic"`
	Code        int     `json:"code"`
	Probability float64 `json:"probability"` // 0-1
	Level       float64 `json:"level"`       // ranking magnitude, not displayed
	Description string  `json:"description"`
}

// Classifier turns raw samples into ranked condition lists. It holds no
// per-call state; the same sample always classifies to the same output.
type Classifier struct {
	cfg    Config
	table  CodeTable
	logger *zap.Logger
}

// NewClassifier returns a Classifier using the given thresholds and code
// table. logger may be nil.
func NewClassifier(cfg Config, table CodeTable, logger *zap.Logger) *Classifier {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Classifier{cfg: cfg, table: table, logger: logger}
}

// Daily classifies a daily-aggregate sample. filter, when non-empty,
// restricts output to one topic. The returned list is sorted descending by
// level; equal levels keep rule-evaluation order.
func (c *Classifier) Daily(d models.DailySample, filter Topic) []Condition {
	st := c.newPass(filter)

	// A code with no precipitation probability attached is a certainty,
	// not a zero chance.
	codeProb := clampProb(d.PrecipProbability)
	if codeProb == 0 {
		codeProb = 1
	}
	st.addCodes(d.Codes, codeProb)

	if st.wants(TopicRain) && !st.seen[TopicRain] && d.PrecipProbability > 0.05 && d.Rain > 0 {
		code, ok := bucketCode(dailyRainBuckets, d.Rain)
		if !ok {
			code = 500
		}
		st.add(TopicRain, code, clampProb(d.PrecipProbability))
	}

	if st.wants(TopicSnow) && !st.seen[TopicSnow] && d.PrecipProbability > 0 && d.Snow > 0 {
		if code, ok := bucketCode(dailySnowBuckets, d.Snow); ok {
			st.add(TopicSnow, code, clampProb(d.PrecipProbability))
		}
	}

	st.addClouds(d.CloudCover)
	st.addWind(d.WindSpeed)

	high := max(d.TempMax, d.FeelsLikeMax)
	low := min(d.TempMin, d.FeelsLikeMin)
	st.addTemperature(c.monthAverages(d.Time), high, low, d.DewPoint, d.Humidity, true)
	st.addHumidity(d.DewPoint, d.Humidity)
	st.addMoon(d.MoonPhase)

	return st.ranked()
}

// Current classifies the "right now" sample. Rain is inferred from the
// rain-last-hour amount when the upstream code list did not carry it; the
// probability is 1 because it is raining now.
func (c *Classifier) Current(s models.CurrentSample, filter Topic) []Condition {
	st := c.newPass(filter)

	st.addCodes(s.Codes, 1)

	if st.wants(TopicRain) && !st.seen[TopicRain] && s.RainLastHour > 0 {
		if code, ok := bucketCode(hourlyRainBuckets, s.RainLastHour); ok {
			st.add(TopicRain, code, 1)
		}
	}
	if st.wants(TopicSnow) && !st.seen[TopicSnow] && s.SnowLastHour > 0 {
		if code, ok := bucketCode(dailySnowBuckets, s.SnowLastHour); ok {
			st.add(TopicSnow, code, 1)
		}
	}

	st.addClouds(s.CloudCover)
	st.addWind(s.WindSpeed)

	high := max(s.Temp, s.FeelsLike)
	low := min(s.Temp, s.FeelsLike)
	st.addTemperature(c.monthAverages(s.Time), high, low, s.DewPoint, s.Humidity, false)
	st.addHumidity(s.DewPoint, s.Humidity)
	st.addMoon(s.MoonPhase)

	return st.ranked()
}

func (c *Classifier) monthAverages(epoch int64) MonthlyTemps {
	month := time.Unix(epoch, 0).In(c.cfg.Location).Month()
	return c.cfg.AvgTemps[int(month)-1]
}

// pass accumulates conditions for one classification call. All state is
// local to the call; nothing is shared between invocations.
type pass struct {
	c      *Classifier
	filter Topic
	seen   map[Topic]bool
	out    []Condition
}

func (c *Classifier) newPass(filter Topic) *pass {
	return &pass{c: c, filter: filter, seen: make(map[Topic]bool)}
}

func (p *pass) wants(t Topic) bool {
	return p.filter == "" || p.filter == t
}

func (p *pass) add(topic Topic, code int, probability float64) {
	info, ok := p.c.table[code]
	if !ok {
		if p.c.logger != nil {
			p.c.logger.Debug("unknown condition code", zap.Int("code", code))
		}
		return
	}
	p.out = append(p.out, Condition{
		Topic:       topic,
		Code:        code,
		Probability: probability,
		Level:       info.Level,
		Description: info.Description,
	})
	p.seen[topic] = true
}

// addCodes maps the upstream condition-code list through the table. Unknown
// codes are skipped with a diagnostic, never an error. Level-zero codes
// (clear skies) are dropped too: the upstream always sends one, and a clear
// day narrates through the quiet-day fallback, not as a condition.
func (p *pass) addCodes(codes []int, probability float64) {
	for _, code := range codes {
		info, ok := p.c.table[code]
		if !ok {
			if p.c.logger != nil {
				p.c.logger.Debug("unknown condition code", zap.Int("code", code))
			}
			continue
		}
		if info.Level == 0 {
			continue
		}
		if !p.wants(info.Category) {
			continue
		}
		p.add(info.Category, code, probability)
	}
}

func (p *pass) addClouds(coverPct float64) {
	if !p.wants(TopicClouds) || p.seen[TopicClouds] {
		return
	}
	if coverPct <= p.c.cfg.CloudBreak*100 {
		return
	}
	if code, ok := bucketCode(cloudBuckets, coverPct); ok {
		p.add(TopicClouds, code, 1)
	}
}

func (p *pass) addWind(speed float64) {
	if !p.wants(TopicWind) || p.seen[TopicWind] {
		return
	}
	if speed <= p.c.cfg.WindBreak {
		return
	}
	if code, ok := bucketCode(windBuckets, speed-p.c.cfg.WindBreak); ok {
		p.add(TopicWind, code, 1)
	}
}

// addTemperature applies the seasonal high/low rules. high and low are the
// effective extremes after merging in feels-like values. hasRange is true
// for daily samples where high and low are independent readings.
func (p *pass) addTemperature(avg MonthlyTemps, high, low, dewPoint, humidity float64, hasRange bool) {
	if !p.wants(TopicTemperature) {
		return
	}
	cfg := p.c.cfg

	if high > cfg.HighTempBreak && high > avg.High*1.05 {
		code := CodeHot
		if high > avg.High*1.15 {
			code = CodeVeryHot
		} else if dewPoint > cfg.DewPointBreak || humidity > cfg.HumidityBreak/100 {
			code = CodeHotHumid
		}
		p.add(TopicTemperature, code, 1)
	} else if high < cfg.LowTempBreak && high < avg.High*0.9 {
		code := CodeCool
		if high < avg.High*0.8 {
			code = CodeCold
		}
		p.add(TopicTemperature, code, 1)
	}

	if hasRange && low < cfg.NightTempBreak && low < avg.Low {
		p.add(TopicTemperature, CodeColdNight, 1)
	}
}

// addHumidity fires the standalone muggy condition, but not when the heat
// rule already produced the hot-and-muggy variant.
func (p *pass) addHumidity(dewPoint, humidity float64) {
	if !p.wants(TopicHumidity) || p.seen[TopicHumidity] {
		return
	}
	for _, c := range p.out {
		if c.Code == CodeHotHumid {
			return
		}
	}
	if dewPoint > p.c.cfg.DewPointBreak*0.9 && humidity > (p.c.cfg.HumidityBreak/100)*0.9 {
		p.add(TopicHumidity, CodeHumid, 1)
	}
}

// addMoon fires only at exact new/full (0 or 1) and exact half phase (0.5).
// There is deliberately no tolerance band.
func (p *pass) addMoon(phase *float64) {
	if !p.wants(TopicAtmosphere) || phase == nil {
		return
	}
	switch *phase {
	case 0, 1:
		p.add(TopicAtmosphere, CodeBrightSky, 1)
	case 0.5:
		p.add(TopicAtmosphere, CodeHalfMoon, 1)
	}
}

func (p *pass) ranked() []Condition {
	sort.SliceStable(p.out, func(i, j int) bool {
		return p.out[i].Level > p.out[j].Level
	})
	return p.out
}

func clampProb(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
