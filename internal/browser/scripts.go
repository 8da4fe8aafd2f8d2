package browser

// Every script returns false when the element it needs is missing, so the
// Go side can decide whether that is an error.

const jsSetOpen = `(open) => {
	const win = document.getElementById('chatWindow');
	const toggle = document.querySelector('.chat-toggle');
	if (!win) return false;
	if (open) {
		win.style.display = 'block';
		if (toggle) toggle.classList.add('active');
		setTimeout(() => win.classList.add('open'), 10);
	} else {
		win.classList.remove('open');
		if (toggle) toggle.classList.remove('active');
		setTimeout(() => { win.style.display = 'none'; }, 300);
	}
	return true;
}`

const jsAppendMessage = `(text, sender) => {
	const box = document.getElementById('chatMessages');
	if (!box) return false;
	const msg = document.createElement('div');
	msg.className = 'message ' + sender + '-message';
	msg.dataset.gcMsg = '1';
	const content = document.createElement('div');
	content.className = 'message-content';
	const avatar = document.createElement('div');
	avatar.className = 'message-avatar';
	const icon = document.createElement('i');
	icon.className = sender === 'assistant' ? 'fas fa-robot' : 'fas fa-user';
	avatar.appendChild(icon);
	const body = document.createElement('div');
	body.className = 'message-text';
	const p = document.createElement('p');
	p.textContent = text;
	body.appendChild(p);
	content.appendChild(avatar);
	content.appendChild(body);
	msg.appendChild(content);
	box.appendChild(msg);
	box.scrollTop = box.scrollHeight;
	return true;
}`

const jsShowTyping = `() => {
	const box = document.getElementById('chatMessages');
	if (!box) return false;
	if (document.getElementById('typingIndicator')) return true;
	const el = document.createElement('div');
	el.className = 'message assistant-message typing-indicator';
	el.id = 'typingIndicator';
	el.dataset.gcMsg = '1';
	el.innerHTML = '<div class="message-content"><div class="message-avatar"><i class="fas fa-robot"></i></div>' +
		'<div class="message-text"><div class="typing-dots"><span></span><span></span><span></span></div></div></div>';
	box.appendChild(el);
	box.scrollTop = box.scrollHeight;
	return true;
}`

const jsRemoveTyping = `() => {
	const el = document.getElementById('typingIndicator');
	if (el) el.remove();
	return true;
}`

// jsReset keeps a greeting that came with the markup: the first element of
// the box, when it is an assistant message not rendered from history.
const jsReset = `() => {
	const box = document.getElementById('chatMessages');
	if (!box) return false;
	const first = box.firstElementChild;
	const greeting = first && first.classList.contains('assistant-message') && !first.dataset.gcMsg ? first : null;
	box.innerHTML = '';
	if (greeting) box.appendChild(greeting);
	return true;
}`

const jsSetInput = `(value) => {
	const input = document.getElementById('chatInput');
	if (!input) return false;
	input.value = value;
	return true;
}`

const jsStorageGet = `(key) => window.localStorage.getItem(key)`

const jsStorageSet = `(key, value) => { window.localStorage.setItem(key, value); return true; }`

const jsStorageRemove = `(key) => { window.localStorage.removeItem(key); return true; }`

const jsCollectMedia = `() => Array.from(document.querySelectorAll('.media-item')).map(el => ({
	url: el.dataset.url || '',
	type: el.dataset.type || '',
	name: el.dataset.name || ''
}))`

const jsShowModal = `() => {
	const modal = document.getElementById('previewModal');
	if (!modal) return false;
	modal.style.display = 'block';
	document.body.style.overflow = 'hidden';
	return true;
}`

const jsHideModal = `() => {
	const modal = document.getElementById('previewModal');
	if (!modal) return false;
	modal.style.display = 'none';
	document.body.style.overflow = 'auto';
	return true;
}`

const jsShowMedia = `(url, kind) => {
	const img = document.getElementById('previewImage');
	const video = document.getElementById('previewVideo');
	if (!img || !video) return false;
	const [show, hide] = kind === 'video' ? [video, img] : [img, video];
	show.src = url;
	show.style.display = 'block';
	hide.style.display = 'none';
	return true;
}`

const jsClearMedia = `() => {
	const img = document.getElementById('previewImage');
	const video = document.getElementById('previewVideo');
	if (video) { video.pause(); video.src = ''; }
	if (img) img.src = '';
	return true;
}`

const jsSetInfo = `(name, type, added) => {
	const set = (id, v) => { const el = document.getElementById(id); if (el) el.textContent = v; };
	set('info-filename', name);
	set('info-type', type);
	set('info-date', added);
	return true;
}`

const jsOpenExternal = `(url) => { window.open(url, '_blank'); return true; }`

const jsNavigate = `(href) => { window.location.href = href; return true; }`

// jsDecorateProjects installs the behaviour of the projects page and returns
// the number of film cards bound. Other pages are left alone. Film clicks are
// routed to the named binding.
const jsDecorateProjects = `(filmBinding) => {
	if (!document.querySelector('.film-item, .x-trilogy-section, .hero-section')) return 0;

	document.querySelectorAll('a[href^="#"]').forEach(link => {
		link.addEventListener('click', e => {
			e.preventDefault();
			const target = document.getElementById(link.getAttribute('href').substring(1));
			if (target) target.scrollIntoView({ behavior: 'smooth', block: 'start' });
		});
	});

	document.querySelectorAll('.trilogy-image, .book-cover, .main-image').forEach(img => {
		img.addEventListener('mouseenter', () => {
			img.style.transform = 'scale(1.02)';
			img.style.transition = 'transform 0.3s ease';
		});
		img.addEventListener('mouseleave', () => { img.style.transform = 'scale(1)'; });
	});

	const observer = new IntersectionObserver(entries => {
		entries.forEach(entry => {
			if (entry.isIntersecting) {
				entry.target.style.opacity = '1';
				entry.target.style.transform = 'translateY(0)';
			}
		});
	}, { threshold: 0.1, rootMargin: '0px 0px -50px 0px' });
	document.querySelectorAll('.film-item, .main-title, .book-cover-container, .image-section').forEach(el => {
		el.style.opacity = '0';
		el.style.transform = 'translateY(30px)';
		el.style.transition = 'opacity 0.6s ease, transform 0.6s ease';
		observer.observe(el);
	});

	const indicator = document.querySelector('.scroll-indicator');
	if (indicator) {
		indicator.addEventListener('click', () => {
			const next = document.querySelector('.x-trilogy-section');
			if (next) next.scrollIntoView({ behavior: 'smooth', block: 'start' });
		});
	}

	const hero = document.querySelector('.hero-section');
	const heroBackground = document.querySelector('.hero-background');
	if (hero && heroBackground) {
		window.addEventListener('scroll', () => {
			heroBackground.style.transform = 'translateY(' + (window.pageYOffset * -0.5) + 'px)';
		});
	}

	const menu = document.querySelector('.menu-toggle');
	if (menu) {
		const spans = () => menu.querySelectorAll('span');
		menu.addEventListener('click', () => {
			spans().forEach((span, i) => {
				if (i === 0) span.style.transform = 'rotate(45deg) translate(5px, 5px)';
				else if (i === 1) span.style.opacity = '0';
				else if (i === 2) span.style.transform = 'rotate(-45deg) translate(7px, -6px)';
			});
		});
		document.addEventListener('keydown', e => {
			if (e.key !== 'Escape') return;
			spans().forEach(span => {
				span.style.transform = 'none';
				span.style.opacity = '1';
			});
		});
	}

	let films = 0;
	document.querySelectorAll('.film-item').forEach(item => {
		films++;
		item.addEventListener('click', e => {
			e.preventDefault();
			e.stopImmediatePropagation();
			item.style.transform = 'scale(0.98)';
			setTimeout(() => { item.style.transform = 'scale(1)'; }, 150);
			const href = item.getAttribute('href');
			if (href) window[filmBinding](href);
		}, true);
	});
	return films;
}`

// jsInstallBindings replaces the page's global handlers with calls into Go.
// It runs on every document and waits for the load event so the page's own
// scripts have defined their globals first.
const jsInstallBindings = `() => {
	const install = () => {
		const call = (name, arg) => { if (window[name]) window[name](arg === undefined ? null : arg); };

		window.toggleChat = () => call('gcToggleChat');
		window.sendMessage = () => {
			const input = document.getElementById('chatInput');
			call('gcSendMessage', input ? input.value : '');
		};
		window.sendQuickMessage = (text) => call('gcSendPreset', text);
		window.clearChatHistory = () => call('gcClearHistory');

		const input = document.getElementById('chatInput');
		if (input) {
			const fresh = input.cloneNode(true);
			input.replaceWith(fresh);
			fresh.addEventListener('keydown', e => {
				if (e.key === 'Enter' && !e.shiftKey) {
					e.preventDefault();
					window.sendMessage();
				}
			});
		}

		window.previewMedia = (url, type, name) => call('gcPreview', { url, type, name });
		window.closeModal = () => call('gcKey', 'Escape');
		window.navigateMedia = (direction) => call('gcNavigate', direction);
		window.downloadFile = (url, name) => call('gcDownload', { url, name });
		window.downloadCurrentFile = () => call('gcDownload', null);

		window.addEventListener('keydown', e => {
			const modal = document.getElementById('previewModal');
			if (!modal || modal.style.display !== 'block') return;
			if (['Escape', 'ArrowLeft', 'ArrowRight'].includes(e.key)) {
				e.stopImmediatePropagation();
				call('gcKey', e.key);
			}
		}, true);

		window.onclick = (e) => {
			const modal = document.getElementById('previewModal');
			if (modal && e.target === modal) call('gcKey', 'Escape');
		};

		call('gcReady', window.location.pathname);
	};
	if (document.readyState === 'complete') install();
	else window.addEventListener('load', install);
}`
