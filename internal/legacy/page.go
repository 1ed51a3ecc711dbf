package legacy

import (
	"encoding/json"
	"fmt"
)

// PostFunc is the page global that posts one envelope to the host.
const PostFunc = "__hostbridgeLegacyPost"

// PageScript installs PostFunc in a page without a direct channel. Envelopes
// are posted to deliverURL, which must already carry the launch token. The
// response is opaque to the page, so a cross-origin page needs no CORS.
func PageScript(deliverURL string) string {
	quoted, _ := json.Marshal(deliverURL)
	return fmt.Sprintf(`
(function () {
    if (window.%[1]s) return;
    var endpoint = %[2]s;
    window.%[1]s = function (text) {
        return fetch(endpoint, { method: "POST", mode: "no-cors", body: String(text) });
    };
})();
`, PostFunc, quoted)
}
