package page

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/izzyreal/padnav/internal/resolver"
)

// snapshotScript clones the document and annotates every element with its
// live index, offset-parent visibility, onclick property and client rect.
// The live elements are kept in window.__padnavElements for activation.
var snapshotScript = fmt.Sprintf(`(() => {
  const root = document.documentElement;
  if (!root) return '';
  const live = [root, ...root.querySelectorAll('*')];
  window.__padnavElements = live;
  const clone = root.cloneNode(true);
  const copies = [clone, ...clone.querySelectorAll('*')];
  const n = Math.min(live.length, copies.length);
  for (let i = 0; i < n; i++) {
    const el = live[i];
    const c = copies[i];
    const r = el.getBoundingClientRect();
    c.setAttribute(%[1]q, String(i));
    c.setAttribute(%[2]q, el.offsetParent !== null ? '1' : '0');
    if (typeof el.onclick === 'function') c.setAttribute(%[3]q, '1');
    c.setAttribute(%[4]q, [r.left, r.top, r.width, r.height].join(','));
  }
  return '<!DOCTYPE html>' + clone.outerHTML;
})()`, resolver.AttrID, resolver.AttrVisible, resolver.AttrOnClick, resolver.AttrRect)

const liveElement = `(window.__padnavElements || [])[%d]`

func dispatchClickScript(id int, x, y float64) string {
	return fmt.Sprintf(`(() => {
  const el = `+liveElement+`;
  if (!el || !el.isConnected) return false;
  el.dispatchEvent(new MouseEvent('click', {view: window, bubbles: true, cancelable: true, clientX: %g, clientY: %g}));
  return true;
})()`, id, x, y)
}

func nativeClickScript(id int) string {
	return fmt.Sprintf(`(() => {
  const el = `+liveElement+`;
  if (!el || typeof el.click !== 'function') return false;
  el.click();
  return true;
})()`, id)
}

func scrollByScript(dy float64) string {
	return fmt.Sprintf(`(() => { window.scrollBy(0, %g); return true; })()`, dy)
}

func smoothScrollByScript(dy float64) string {
	return fmt.Sprintf(`(() => { window.scrollBy({top: %g, behavior: 'smooth'}); return true; })()`, dy)
}

const viewportHeightScript = `window.innerHeight`

const gamepadsScript = `(() => {
  const pads = navigator.getGamepads ? Array.from(navigator.getGamepads()) : [];
  return pads.filter(g => g).map(g => ({
    id: g.id,
    index: g.index,
    axes: Array.from(g.axes),
    buttons: Array.from(g.buttons, b => ({pressed: b.pressed, value: b.value})),
  }));
})()`

// gamepadEventsScript installs the connect/disconnect listeners on first use
// and drains the queued events.
const gamepadEventsScript = `(() => {
  if (!window.__padnavEventsInstalled) {
    window.__padnavEventsInstalled = true;
    window.__padnavEvents = [];
    window.addEventListener('gamepadconnected', e => window.__padnavEvents.push({kind: 'connected', id: e.gamepad.id}));
    window.addEventListener('gamepaddisconnected', e => window.__padnavEvents.push({kind: 'disconnected', id: e.gamepad.id}));
  }
  const q = window.__padnavEvents;
  window.__padnavEvents = [];
  return q;
})()`

const toastStyle = `.gamepad-toast{position:fixed;top:20px;right:20px;background:linear-gradient(135deg,#6f42c1,#e83e8c);` +
	`color:#fff;padding:12px 20px;border-radius:8px;box-shadow:0 4px 12px rgba(0,0,0,.3);z-index:999999;` +
	`font:bold 14px -apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;transform:translateX(100%);` +
	`transition:transform .3s ease-in-out,opacity .3s ease;max-width:280px;border-left:4px solid #00ff88;` +
	`opacity:0;pointer-events:none}.gamepad-toast.show{transform:translateX(0);opacity:1}`

func toastScript(message string, d time.Duration) string {
	msg, _ := json.Marshal("🎮 " + message)
	css, _ := json.Marshal(toastStyle)
	return fmt.Sprintf(`(() => {
  if (!document.body) return false;
  if (!document.getElementById('padnav-style')) {
    const style = document.createElement('style');
    style.id = 'padnav-style';
    style.textContent = %s;
    (document.head || document.body).appendChild(style);
  }
  document.querySelectorAll('.gamepad-toast').forEach(t => t.remove());
  const toast = document.createElement('div');
  toast.className = 'gamepad-toast';
  toast.textContent = %s;
  document.body.appendChild(toast);
  setTimeout(() => toast.classList.add('show'), 100);
  setTimeout(() => {
    if (!toast.parentElement) return;
    toast.classList.remove('show');
    setTimeout(() => toast.parentElement && toast.remove(), 300);
  }, %d);
  return true;
})()`, css, msg, d.Milliseconds())
}
