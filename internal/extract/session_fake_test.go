package extract

import (
	"time"

	"mangograb/internal/render"
	"mangograb/internal/sites"
)

// fakeSession is a scripted stand-in for a rendering session. Pages are
// keyed by URL in docs; a URL with no document makes every WaitFor on it
// time out, which is how tests script end-of-chapter. htmlSeq, when set,
// overrides docs and returns one entry per HTML call, sticking on the
// last entry once the script runs out.
type fakeSession struct {
	current  string
	docs     map[string]string
	htmlSeq  []string
	navErr   map[string]error
	waitHook func(current, sel string) error

	navs    []string
	clicks  []string
	scrolls int
	bottoms int
	closes  int
}

func (s *fakeSession) Navigate(url string) error {
	s.navs = append(s.navs, url)
	if err := s.navErr[url]; err != nil {
		return err
	}
	s.current = url
	return nil
}

func (s *fakeSession) CurrentURL() string { return s.current }

func (s *fakeSession) WaitFor(sel string, _ time.Duration) error {
	if s.waitHook != nil {
		return s.waitHook(s.current, sel)
	}
	if len(s.htmlSeq) > 0 {
		return nil
	}
	if _, ok := s.docs[s.current]; !ok {
		return render.ErrWaitTimeout
	}
	return nil
}

func (s *fakeSession) Click(sel string, _ time.Duration) error {
	s.clicks = append(s.clicks, sel)
	return render.ErrWaitTimeout
}

func (s *fakeSession) ScrollBy(px int) error {
	s.scrolls++
	return nil
}

func (s *fakeSession) ScrollToBottom() error {
	s.bottoms++
	return nil
}

func (s *fakeSession) HTML() (string, error) {
	if len(s.htmlSeq) > 0 {
		h := s.htmlSeq[0]
		if len(s.htmlSeq) > 1 {
			s.htmlSeq = s.htmlSeq[1:]
		}
		return h, nil
	}
	return s.docs[s.current], nil
}

func (s *fakeSession) Close() error {
	s.closes++
	return nil
}

func newTestExtractor(sess render.Session) *Extractor {
	return &Extractor{
		open:    func(sites.Variant) (render.Session, error) { return sess, nil },
		timeout: time.Second,
	}
}
