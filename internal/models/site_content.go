package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// SiteContent is the typed form of the digital-marketing/maxreach template content.
// Field names follow the template's JSON schema exactly.
type SiteContent struct {
	Header            Header            `json:"header"`
	Hero              Hero              `json:"hero"`
	WorkPrinciples    WorkPrinciples    `json:"workPrinciples"`
	KeyFeature        KeyFeature        `json:"keyFeature"`
	WhyUs             WhyUs             `json:"whyUs"`
	StatsCounter      StatsCounter      `json:"statsCounter"`
	OfferingsGrid     OfferingsGrid     `json:"offeringsGrid"`
	ThreeSteps        ThreeSteps        `json:"threeSteps"`
	Testimonials      Testimonials      `json:"testimonials"`
	MaxReachAdvantage MaxReachAdvantage `json:"maxReachAdvantage"`
	FAQ               FAQ               `json:"faq"`
	Footer            Footer            `json:"footer"`
}

type Header struct {
	Logo        string `json:"logo"`
	CompanyName string `json:"companyName"`
}

type Hero struct {
	Badge struct {
		New     string `json:"new"`
		Welcome string `json:"welcome"`
	} `json:"badge"`
	Heading     RotatingHeading `json:"heading"`
	Description string          `json:"description"`
	Buttons     struct {
		GetStarted       string `json:"getStarted"`
		ViewAchievements string `json:"viewAchievements"`
	} `json:"buttons"`
}

// RotatingHeading is a fixed prefix followed by texts the UI cycles through
type RotatingHeading struct {
	Prefix        string   `json:"prefix"`
	RotatingTexts []string `json:"rotatingTexts"`
}

// IconCard is a titled block with a Feather icon name such as "FiZap"
type IconCard struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Statistic struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type WorkPrinciples struct {
	Badge       string      `json:"badge"`
	Heading     string      `json:"heading"`
	Description string      `json:"description"`
	Statistics  []Statistic `json:"statistics"`
	Features    []IconCard  `json:"features"`
}

type KeyFeature struct {
	Badge   string `json:"badge"`
	Heading struct {
		Prefix    string `json:"prefix"`
		Highlight string `json:"highlight"`
		Suffix    string `json:"suffix"`
	} `json:"heading"`
	Description string `json:"description"`
	Button      string `json:"button"`
}

type WhyUs struct {
	Badge       string          `json:"badge"`
	Heading     RotatingHeading `json:"heading"`
	Description string          `json:"description"`
	Features    []IconCard      `json:"features"`
}

type CounterStatistic struct {
	Value  string `json:"value"`
	Suffix string `json:"suffix"`
	Label  string `json:"label"`
}

type StatsCounter struct {
	Statistics []CounterStatistic `json:"statistics"`
}

type OfferingsGrid struct {
	Badge       string     `json:"badge"`
	Heading     string     `json:"heading"`
	Description string     `json:"description"`
	Services    []IconCard `json:"services"`
}

type ThreeSteps struct {
	Badge       string     `json:"badge"`
	Heading     string     `json:"heading"`
	Description string     `json:"description"`
	Steps       []IconCard `json:"steps"`
}

type Testimonial struct {
	Rating WholeNumber `json:"rating"`
	Quote  string      `json:"quote"`
}

type Testimonials struct {
	Badge        string        `json:"badge"`
	Heading      string        `json:"heading"`
	Description  string        `json:"description"`
	Testimonials []Testimonial `json:"testimonials"`
}

type MaxReachAdvantage struct {
	Heading     string   `json:"heading"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
	Button      string   `json:"button"`
}

type FAQItem struct {
	ID       WholeNumber `json:"id"`
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
}

type FAQ struct {
	LeftSection struct {
		Heading     string `json:"heading"`
		Description string `json:"description"`
		Button      string `json:"button"`
	} `json:"leftSection"`
	FAQItems []FAQItem `json:"faqItems"`
}

type Footer struct {
	Logo        string `json:"logo"`
	CompanyName string `json:"companyName"`
	Branding    struct {
		Tagline string `json:"tagline"`
		Heading struct {
			Prefix    string `json:"prefix"`
			Highlight string `json:"highlight"`
		} `json:"heading"`
		Connect string `json:"connect"`
	} `json:"branding"`
	Navigation struct {
		Services []string `json:"services"`
		Company  []string `json:"company"`
		Support  []string `json:"support"`
	} `json:"navigation"`
}

// WholeNumber is an int that also decodes integral JSON floats such as 5.0,
// which JSON Schema counts as integers.
type WholeNumber int

func (n *WholeNumber) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("%s is not a whole number", data)
	}
	*n = WholeNumber(f)
	return nil
}
