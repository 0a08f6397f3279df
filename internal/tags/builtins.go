package tags

import (
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
)

// RegisterBuiltins installs the stock tags: youtube and prominent.
func RegisterBuiltins(reg *Registry) error {
	if err := reg.RegisterSelfClosing("youtube", YouTube); err != nil {
		return err
	}
	return reg.RegisterWrapping("prominent", Prominent)
}

// YouTube embeds a video: {% youtube VIDEO_ID %}.
func YouTube(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", errors.New("missing video id")
	}
	src := "https://www.youtube.com/embed/" + url.PathEscape(args[0]) + "?rel=0"
	return fmt.Sprintf(`<iframe class="youtube-video" width="560" height="315" src="%s" frameborder="0" allowfullscreen=""></iframe>`,
		html.EscapeString(src)), nil
}

// Prominent wraps its body in a highlighted block: {% prominent %}...{% endprominent %}.
func Prominent(_ []string, innerHTML string) (string, error) {
	return "<div class=\"prominent\">\n" + strings.TrimSpace(innerHTML) + "\n</div>", nil
}
